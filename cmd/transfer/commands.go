package main

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	aptos "github.com/sidkris/aptos-transfer"
	"github.com/sidkris/aptos-transfer/crypto"
	"github.com/sidkris/aptos-transfer/internal/config"
	"github.com/sidkris/aptos-transfer/internal/journal"
	"github.com/spf13/cobra"
)

const (
	flagAmount       = "amount"
	flagFundAmount   = "fund-amount"
	flagSimulate     = "simulate"
	flagAbort        = "abort-on-predicted-failure"
	flagMaxGas       = "max-gas"
	flagGasUnitPrice = "gas-unit-price"
	flagTimeout      = "timeout"
	flagPrivateKey   = "private-key"
	flagWait         = "wait"

	// keySenderPrivateKey is read from viper directly, it is not part of config.Config
	keySenderPrivateKey = "sender.private_key"
)

// addTransferFlags adds the gas and timing flags shared by run and send
func addTransferFlags(a *app, cmd *cobra.Command) {
	cmd.Flags().Uint64(flagAmount, 0, "amount to transfer, in octas")
	cmd.Flags().Bool(flagSimulate, true, "dry-run the transaction before signing it")
	cmd.Flags().Bool(flagAbort, false, "stop when the dry run predicts failure")
	cmd.Flags().Uint64(flagMaxGas, 0, "maximum gas units")
	cmd.Flags().Uint64(flagGasUnitPrice, 0, "gas unit price, in octas")
	cmd.Flags().Duration(flagTimeout, 0, "how long to wait for the transaction to commit")
	a.bindFlag(cmd, config.KeyTransferAmount, flagAmount)
	a.bindFlag(cmd, config.KeySimulate, flagSimulate)
	a.bindFlag(cmd, config.KeyAbortOnPredicted, flagAbort)
	a.bindFlag(cmd, config.KeyMaxGasAmount, flagMaxGas)
	a.bindFlag(cmd, config.KeyGasUnitPrice, flagGasUnitPrice)
	a.bindFlag(cmd, config.KeyPollTimeout, flagTimeout)
}

func runCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fund a fresh sender from the faucet and pay a fresh recipient",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			flow, err := a.flow(client)
			if err != nil {
				return err
			}
			report, err := flow.RunTutorial(cmd.Context(), aptos.TutorialRequest{
				FundAmount:     a.cfg.Transfer.FundAmount,
				TransferAmount: a.cfg.Transfer.Amount,
				Transfer:       a.transferRequest(),
			})
			if report != nil && report.Sender != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Sender:    %s\n", report.Sender.Address)
				fmt.Fprintf(cmd.OutOrStdout(), "Recipient: %s\n", report.Recipient.Address)
			}
			if report != nil && report.TransferReport != nil {
				printReport(cmd.OutOrStdout(), report.TransferReport)
			}
			return err
		},
	}
	addTransferFlags(a, cmd)
	cmd.Flags().Uint64(flagFundAmount, 0, "amount the faucet funds the sender with, in octas")
	a.bindFlag(cmd, config.KeyFundAmount, flagFundAmount)
	return cmd
}

func sendCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <recipient>",
		Short: "Transfer from an existing account, given by its Ed25519 private key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var recipient aptos.AccountAddress
			if err := recipient.ParseStringRelaxed(args[0]); err != nil {
				return err
			}
			keyHex := a.v.GetString(keySenderPrivateKey)
			if keyHex == "" {
				return errors.Errorf("no sender key, pass --%s or set %s_SENDER_PRIVATE_KEY", flagPrivateKey, config.EnvPrefix)
			}
			privateKey := &crypto.Ed25519PrivateKey{}
			if err := privateKey.FromHex(keyHex); err != nil {
				return errors.Wrap(err, "sender key")
			}
			sender, err := aptos.NewAccountFromSigner(privateKey)
			if err != nil {
				return err
			}

			client, err := a.client()
			if err != nil {
				return err
			}
			flow, err := a.flow(client)
			if err != nil {
				return err
			}
			request := a.transferRequest()
			request.Sender = sender
			request.Recipient = recipient
			request.Amount = a.cfg.Transfer.Amount
			report, err := flow.Run(cmd.Context(), request)
			if report != nil {
				printReport(cmd.OutOrStdout(), report)
			}
			return err
		},
	}
	addTransferFlags(a, cmd)
	cmd.Flags().String(flagPrivateKey, "", "sender's Ed25519 private key, hex")
	a.bindFlag(cmd, keySenderPrivateKey, flagPrivateKey)
	return cmd
}

func balanceCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <address>",
		Short: "Print the AptosCoin balance of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var address aptos.AccountAddress
			if err := address.ParseStringRelaxed(args[0]); err != nil {
				return err
			}
			client, err := a.client()
			if err != nil {
				return err
			}
			balance, err := aptos.NewAccountProvisioner(client, nil).QueryBalance(cmd.Context(), address)
			if errors.Is(err, aptos.ErrAccountNotFound) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: 0 (account does not exist)\n", address)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d at version %d\n", address, balance.Amount, balance.LedgerVersion)
			return nil
		},
	}
}

func statusCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <hash>",
		Short: "Look up a submitted transaction, optionally waiting for it to commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash := args[0]
			j, err := a.journal()
			if err != nil {
				return err
			}
			var entry *journal.Entry
			if j != nil {
				found, err := j.Get(hash)
				switch {
				case err == nil:
					entry = &found
					fmt.Fprintf(cmd.OutOrStdout(), "Journal: %s, %d octas from %s to %s, last seen %s\n",
						found.State, found.Amount, found.Sender, found.Recipient, found.UpdatedAt.Format("2006-01-02 15:04:05"))
				case errors.Is(err, journal.ErrNotFound):
					a.logger.Debug().Str("hash", hash).Msg("Transaction not in journal")
				default:
					return err
				}
			}

			client, err := a.client()
			if err != nil {
				return err
			}
			submitter := aptos.NewSubmitter(client)
			var receipt *aptos.TransactionReceipt
			wait, _ := cmd.Flags().GetBool(flagWait)
			if wait {
				receipt, err = submitter.AwaitFinalization(cmd.Context(), hash, a.cfg.Confirm.PollInterval, a.cfg.Confirm.Timeout)
			} else {
				receipt, err = submitter.FetchReceipt(cmd.Context(), hash)
			}
			if err != nil {
				return err
			}
			printReceipt(cmd.OutOrStdout(), receipt)

			if entry != nil {
				entry.State = string(aptos.StateCommitted)
				if !receipt.Success {
					entry.State = string(aptos.StateRejected)
				}
				entry.Success = receipt.Success
				entry.VmStatus = receipt.VmStatus
				entry.GasUsed = receipt.GasUsed
				entry.Version = receipt.Version
				if err := j.Record(*entry); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().Bool(flagWait, false, "wait until the transaction commits or the confirm timeout passes")
	return cmd
}

func historyCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List the journaled transactions, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := a.journal()
			if err != nil {
				return err
			}
			if j == nil {
				return errors.New("no journal configured")
			}
			entries, err := j.List()
			if err != nil {
				return err
			}
			for _, entry := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-9s  %10d  %s -> %s\n",
					entry.Hash, entry.State, entry.Amount, entry.Sender, entry.Recipient)
			}
			return nil
		},
	}
}

func printReport(out io.Writer, report *aptos.TransferReport) {
	fmt.Fprintf(out, "Amount:    %d\n", report.Amount)
	fmt.Fprintf(out, "Before:    sender %d, recipient %d\n", report.SenderBalanceBefore.Amount, report.RecipientBalanceBefore.Amount)
	if report.Simulation != nil {
		fmt.Fprintf(out, "Estimate:  %d gas units, fee %d\n", report.Simulation.EstimatedGasUnits, report.EstimatedFee())
	}
	if report.Hash != "" {
		fmt.Fprintf(out, "Hash:      %s\n", report.Hash)
	}
	fmt.Fprintf(out, "States:    %v\n", report.States)
	if report.Receipt != nil {
		printReceipt(out, report.Receipt)
		fmt.Fprintf(out, "After:     sender %d, recipient %d\n", report.SenderBalanceAfter.Amount, report.RecipientBalanceAfter.Amount)
		fmt.Fprintf(out, "Spent:     %d, received %d\n", report.SenderSpend(), report.RecipientGain())
	}
}

func printReceipt(out io.Writer, receipt *aptos.TransactionReceipt) {
	outcome := "success"
	if !receipt.Success {
		outcome = "failed: " + receipt.VmStatus
	}
	fmt.Fprintf(out, "Committed: version %d, %s\n", receipt.Version, outcome)
	fmt.Fprintf(out, "Fee:       %d gas units at %d, %d\n", receipt.GasUsed, receipt.GasUnitPrice, receipt.ActualFee())
}
