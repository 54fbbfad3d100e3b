// Package reply renders the chat messages sent back to the sender.
package reply

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"zapledger/internal/core"
)

// Locale controls how money is rendered.
type Locale struct {
	Symbol       string
	ThousandsSep string
	DecimalSep   string
}

// BRL renders "R$ 1.234,56".
func BRL() Locale {
	return Locale{Symbol: "R$", ThousandsSep: ".", DecimalSep: ","}
}

// Formatter builds every user-facing string of the pipeline.
type Formatter struct {
	locale Locale
	schema core.Schema
}

func NewFormatter(locale Locale, schema core.Schema) *Formatter {
	if locale.DecimalSep == "" {
		locale.DecimalSep = ","
	}
	return &Formatter{locale: locale, schema: schema}
}

// Money rounds v to two places (half away from zero) and groups thousands.
func (f *Formatter) Money(v float64) string {
	s := decimal.NewFromFloat(v).StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")
	if neg && strings.Trim(intPart+frac, "0") == "" {
		neg = false // no "-R$ 0,00"
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	if f.locale.Symbol != "" {
		b.WriteString(f.locale.Symbol)
		b.WriteByte(' ')
	}
	b.WriteString(group(intPart, f.locale.ThousandsSep))
	b.WriteString(f.locale.DecimalSep)
	b.WriteString(frac)
	return b.String()
}

func group(digits, sep string) string {
	if sep == "" || len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Recorded acknowledges tx and shows the running total for its label.
func (f *Formatter) Recorded(tx core.Transaction, dim core.Dimension, total float64) string {
	return fmt.Sprintf("✅ Gasto registrado: %s – %s\n📊 Total em %s: %s",
		tx.Description, f.Money(tx.Amount), dim.Value(tx), f.Money(total))
}

// RecordedWithoutTotal is used when the append succeeded but the total
// could not be read back.
func (f *Formatter) RecordedWithoutTotal(tx core.Transaction, dim core.Dimension) string {
	return fmt.Sprintf("✅ Gasto registrado: %s – %s\n⚠️ Não consegui calcular o total de %s agora.",
		tx.Description, f.Money(tx.Amount), dim.Value(tx))
}

// WrongArity explains the expected message layout.
func (f *Formatter) WrongArity() string {
	names := f.schema.FieldNames()
	example := "Mercado, 10,50, alimentação"
	if f.schema == core.FourField {
		example += ", crédito"
	}
	return fmt.Sprintf("❌ Formato inválido. Envie: %s\nExemplo: %s",
		strings.Join(names, ", "), example)
}

// InvalidAmount quotes the value that did not parse.
func (f *Formatter) InvalidAmount(raw string) string {
	return fmt.Sprintf("❌ Valor inválido: \"%s\". Use apenas números, por exemplo 10,50.", raw)
}

// MissingField names the empty field.
func (f *Formatter) MissingField(field string) string {
	return fmt.Sprintf("❌ O campo %s está vazio.\n%s", fieldLabel(field), f.WrongArity())
}

// StoreFailure names the labels the backend may have refused.
func (f *Formatter) StoreFailure(tx core.Transaction) string {
	return fmt.Sprintf("⚠️ Não foi possível registrar o gasto. Verifique se a categoria \"%s\" e o pagamento \"%s\" existem na planilha e tente novamente.",
		tx.Category, tx.PaymentType)
}

// ForError picks the corrective message for a parse or validation error.
// ok is false for errors that are not the user's fault.
func (f *Formatter) ForError(err error) (string, bool) {
	var pe *core.ParseError
	var ve *core.ValidationError
	switch {
	case errors.As(err, &pe):
		return f.WrongArity(), true
	case errors.As(err, &ve):
		if ve.Kind == core.InvalidAmount {
			return f.InvalidAmount(ve.Value), true
		}
		return f.MissingField(ve.Field), true
	}
	return "", false
}

func fieldLabel(field string) string {
	switch field {
	case "description":
		return "descrição"
	case "category":
		return "categoria"
	case "paymentType":
		return "pagamento"
	}
	return field
}
