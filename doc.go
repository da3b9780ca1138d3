// Package aptos moves AptosCoin from one account to another on an Aptos ledger, end to end.
//
// A transfer goes through provisioning, building, an optional simulation, signing, submission and confirmation.
// Each step has its own component ([AccountProvisioner], [TransactionBuilder], [Simulator],
// [TransactionSignerService] and [Submitter]) and [TransferFlow] runs them in order, recording every state the
// transaction passes through.
//
// Quick links:
//
//   - [Aptos Docs] for learning more about Aptos and how to use it.
//   - [Examples] are standalone runnable examples of how to use the package.
//
// The whole tutorial, two fresh accounts, funding one of them and paying the other, is a single call:
//
//	client, err := aptos.NewClient(aptos.DevnetConfig)
//	if err != nil {
//		panic("Failed to create client " + err.Error())
//	}
//
//	flow := aptos.NewTransferFlow(client, client)
//	report, err := flow.RunTutorial(ctx, aptos.TutorialRequest{
//		Transfer: aptos.TransferRequest{Simulate: true, Timeout: 30 * time.Second},
//	})
//	if err != nil {
//		panic("Failed to transfer:" + err.Error())
//	}
//	fmt.Printf("Sender spent %d, of which %d was gas\n", report.SenderSpend(), report.ActualFee())
//
// Or a transfer between accounts you already hold:
//
//	report, err := flow.Run(ctx, aptos.TransferRequest{
//		Sender:    sender,
//		Recipient: receiver,
//		Amount:    1_000,
//		Timeout:   30 * time.Second,
//	})
//
// Failures are wrapped in a [StageError] naming the step that failed, and classified with sentinels such as
// [ErrAccountNotFound] or [ErrStaleSequenceNumber] for use with errors.Is.
//
// [Examples]: https://github.com/sidkris/aptos-transfer/tree/main/examples
//
// [Aptos Docs]: https://aptos.dev
package aptos
