package aptos

import (
	"fmt"
	"strings"

	"github.com/aptos-labs/aptos-go-sdk/bcs"
)

// TypeTagVariant is the BCS enum tag of a [TypeTag]
type TypeTagVariant uint32

const (
	TypeTagBool    TypeTagVariant = 0
	TypeTagU8      TypeTagVariant = 1
	TypeTagU64     TypeTagVariant = 2
	TypeTagU128    TypeTagVariant = 3
	TypeTagAddress TypeTagVariant = 4
	TypeTagSigner  TypeTagVariant = 5
	TypeTagVector  TypeTagVariant = 6
	TypeTagStruct  TypeTagVariant = 7
	TypeTagU16     TypeTagVariant = 8
	TypeTagU32     TypeTagVariant = 9
	TypeTagU256    TypeTagVariant = 10
)

var primitiveTypeNames = map[TypeTagVariant]string{
	TypeTagBool:    "bool",
	TypeTagU8:      "u8",
	TypeTagU16:     "u16",
	TypeTagU32:     "u32",
	TypeTagU64:     "u64",
	TypeTagU128:    "u128",
	TypeTagU256:    "u256",
	TypeTagAddress: "address",
	TypeTagSigner:  "signer",
}

// TypeTag is a Move type used as a type argument of an entry function
//
// Only one of Vector or Struct is set, and only for the matching Variant.
type TypeTag struct {
	Variant TypeTagVariant
	Vector  *TypeTag
	Struct  *StructTag
}

// StructTag is a fully qualified Move struct, e.g. 0x1::aptos_coin::AptosCoin
type StructTag struct {
	Address    AccountAddress
	Module     string
	Name       string
	TypeParams []TypeTag
}

// AptosCoinTypeTag is 0x1::aptos_coin::AptosCoin
var AptosCoinTypeTag = TypeTag{
	Variant: TypeTagStruct,
	Struct: &StructTag{
		Address: AccountOne,
		Module:  "aptos_coin",
		Name:    "AptosCoin",
	},
}

func (tt TypeTag) String() string {
	switch tt.Variant {
	case TypeTagVector:
		return "vector<" + tt.Vector.String() + ">"
	case TypeTagStruct:
		return tt.Struct.String()
	default:
		if name, ok := primitiveTypeNames[tt.Variant]; ok {
			return name
		}
		return fmt.Sprintf("unknown(%d)", tt.Variant)
	}
}

func (st *StructTag) String() string {
	b := strings.Builder{}
	b.WriteString(st.Address.String())
	b.WriteString("::")
	b.WriteString(st.Module)
	b.WriteString("::")
	b.WriteString(st.Name)
	if len(st.TypeParams) > 0 {
		b.WriteRune('<')
		for i, param := range st.TypeParams {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(param.String())
		}
		b.WriteRune('>')
	}
	return b.String()
}

func (tt *TypeTag) MarshalBCS(ser *bcs.Serializer) {
	ser.Uleb128(uint32(tt.Variant))
	switch tt.Variant {
	case TypeTagVector:
		if tt.Vector == nil {
			ser.SetError(fmt.Errorf("vector type tag without element type"))
			return
		}
		tt.Vector.MarshalBCS(ser)
	case TypeTagStruct:
		if tt.Struct == nil {
			ser.SetError(fmt.Errorf("struct type tag without struct"))
			return
		}
		tt.Struct.MarshalBCS(ser)
	}
}

func (tt *TypeTag) UnmarshalBCS(des *bcs.Deserializer) {
	tt.Variant = TypeTagVariant(des.Uleb128())
	if des.Error() != nil {
		return
	}
	switch tt.Variant {
	case TypeTagVector:
		tt.Vector = &TypeTag{}
		tt.Vector.UnmarshalBCS(des)
	case TypeTagStruct:
		tt.Struct = &StructTag{}
		tt.Struct.UnmarshalBCS(des)
	default:
		if _, ok := primitiveTypeNames[tt.Variant]; !ok {
			des.SetError(fmt.Errorf("unknown type tag variant %d", tt.Variant))
		}
	}
}

func (st *StructTag) MarshalBCS(ser *bcs.Serializer) {
	st.Address.MarshalBCS(ser)
	ser.WriteString(st.Module)
	ser.WriteString(st.Name)
	serializeTypeTags(ser, st.TypeParams)
}

func (st *StructTag) UnmarshalBCS(des *bcs.Deserializer) {
	st.Address.UnmarshalBCS(des)
	st.Module = des.ReadString()
	st.Name = des.ReadString()
	st.TypeParams = deserializeTypeTags(des)
}

func serializeTypeTags(ser *bcs.Serializer, tags []TypeTag) {
	ser.Uleb128(uint32(len(tags)))
	for i := range tags {
		tags[i].MarshalBCS(ser)
	}
}

func deserializeTypeTags(des *bcs.Deserializer) []TypeTag {
	length := des.Uleb128()
	if des.Error() != nil {
		return nil
	}
	tags := make([]TypeTag, 0, length)
	for i := uint32(0); i < length; i++ {
		tag := TypeTag{}
		tag.UnmarshalBCS(des)
		if des.Error() != nil {
			return nil
		}
		tags = append(tags, tag)
	}
	return tags
}

// ParseTypeTag parses a Move type such as "u64", "vector<u8>" or "0x1::aptos_coin::AptosCoin"
func ParseTypeTag(text string) (*TypeTag, error) {
	tag, rest, err := parseTypeTag(strings.TrimSpace(text))
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(rest) != "" {
		return nil, fmt.Errorf("unexpected trailing input %q in type %q", rest, text)
	}
	return tag, nil
}

func parseTypeTag(text string) (*TypeTag, string, error) {
	text = strings.TrimLeft(text, " ")
	for variant, name := range primitiveTypeNames {
		if strings.HasPrefix(text, name) && !continuesIdentifier(text[len(name):]) {
			return &TypeTag{Variant: variant}, text[len(name):], nil
		}
	}
	if strings.HasPrefix(text, "vector<") {
		inner, rest, err := parseTypeTag(text[len("vector<"):])
		if err != nil {
			return nil, "", err
		}
		rest = strings.TrimLeft(rest, " ")
		if !strings.HasPrefix(rest, ">") {
			return nil, "", fmt.Errorf("unterminated vector type")
		}
		return &TypeTag{Variant: TypeTagVector, Vector: inner}, rest[1:], nil
	}

	// address::module::name<params>
	parts := make([]string, 0, 3)
	for i := 0; i < 2; i++ {
		idx := strings.Index(text, "::")
		if idx <= 0 {
			return nil, "", fmt.Errorf("invalid struct type %q", text)
		}
		parts = append(parts, text[:idx])
		text = text[idx+2:]
	}
	end := strings.IndexAny(text, "<>, ")
	if end < 0 {
		end = len(text)
	}
	if end == 0 {
		return nil, "", fmt.Errorf("struct type without a name")
	}
	parts = append(parts, text[:end])
	text = text[end:]

	st := &StructTag{Module: parts[1], Name: parts[2]}
	if err := st.Address.ParseStringRelaxed(parts[0]); err != nil {
		return nil, "", err
	}
	if strings.HasPrefix(text, "<") {
		text = text[1:]
		for {
			param, rest, err := parseTypeTag(text)
			if err != nil {
				return nil, "", err
			}
			st.TypeParams = append(st.TypeParams, *param)
			rest = strings.TrimLeft(rest, " ")
			if strings.HasPrefix(rest, ",") {
				text = rest[1:]
				continue
			}
			if strings.HasPrefix(rest, ">") {
				text = rest[1:]
				break
			}
			return nil, "", fmt.Errorf("unterminated type parameter list")
		}
	}
	return &TypeTag{Variant: TypeTagStruct, Struct: st}, text, nil
}

func continuesIdentifier(rest string) bool {
	if rest == "" {
		return false
	}
	c := rest[0]
	return c == '_' || c == ':' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
