package pdf

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/orcamento/internal/extract"
	pdferrors "github.com/a3tai/orcamento/internal/pdf/errors"
	"github.com/a3tai/orcamento/internal/quote"
)

var renderDate = time.Date(2025, time.March, 5, 14, 30, 0, 0, time.UTC)

func sampleForm() quote.Form {
	f := quote.NewForm()
	f.Quote = quote.Quote{
		ClientName:     "Maria Silva",
		ClientPhone:    "(47) 99999-0000",
		ClientAddress:  "Rua X, 10",
		ProjectName:    "Cozinha",
		DeliveryTerm:   "30 dias",
		PaymentTerms:   "50% na entrada",
		ValidityPeriod: "15 dias",
		Notes:          "Entrega no térreo",
		IncludedItems:  "Montagem",
		ExcludedItems:  "Pintura",
		LineItems: []quote.LineItem{
			quote.NewLineItem("Mesa", 2, "Tampo em MDF", "MDF", 400),
			quote.NewLineItem("Armário", 1, "Portas de correr com puxadores embutidos e acabamento laqueado fosco em toda a extensão", "MDF Branco TX Premium", 1234.56),
		},
	}
	return f
}

func testRenderer() *Renderer {
	return NewRenderer(Company{
		Name:      "AW Marcenaria Móveis Sob Medida",
		Address:   "Rua Brusque, 880, Bairro Glória - Blumenau - SC",
		Signature: "Att. Genesio e Sidnei",
	})
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "orcamento_Maria_Silva_05-03-2025.pdf", FileName("Maria Silva", renderDate))
	assert.Equal(t, "orcamento_05-03-2025.pdf", FileName("  ", renderDate))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "MDF Branco TX P", truncateRunes("MDF Branco TX Premium", 15))
	assert.Equal(t, "Laca", truncateRunes("Laca", 15))
	assert.Equal(t, "Ébano", truncateRunes("Ébano escuro", 5))
}

func TestRenderer_Render(t *testing.T) {
	tests := []struct {
		name string
		form quote.Form
	}{
		{name: "full quote", form: sampleForm()},
		{name: "empty form", form: quote.NewForm()},
		{name: "with discount", form: func() quote.Form {
			f := sampleForm()
			f.DiscountPercent = 10
			return f
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := testRenderer().Render(tt.form, renderDate)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
		})
	}
}

func TestRenderer_ManyItemsSpanPages(t *testing.T) {
	f := quote.NewForm()
	for i := 0; i < 60; i++ {
		f.Quote.LineItems = append(f.Quote.LineItems, quote.NewLineItem("Prateleira", 1, "", "", 10))
	}

	data, err := testRenderer().Render(f, renderDate)
	require.NoError(t, err)

	pages, err := NewValidator(0).ValidateBytes(data)
	require.NoError(t, err)
	assert.Greater(t, pages, 1)
}

func TestRenderDecodeExtract(t *testing.T) {
	form := sampleForm()
	data, err := testRenderer().Render(form, renderDate)
	require.NoError(t, err)

	decoder, err := NewDecoder(DecoderLedongthuc, NewValidator(10*1024*1024))
	require.NoError(t, err)

	doc, err := decoder.Decode(data)
	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)

	text := doc.Text()
	assert.Greater(t, strings.Count(text, "\n"), 20, "page text should keep its line structure")
	assert.Contains(t, text, "Cliente: Maria Silva")
	assert.Contains(t, text, "Projetos: Cozinha")
	require.NotEmpty(t, doc.Tables(), "item grid should be detected")
	assert.Equal(t, []string{"Item", "Qtd", "Especificações", "Material", "Subtotal"}, doc.Tables()[0][0])

	q, err := extract.Extract(text, doc.Tables())
	require.NoError(t, err)

	assert.Equal(t, "Maria Silva", q.ClientName)
	assert.Equal(t, "(47) 99999-0000", q.ClientPhone)
	assert.Equal(t, "Rua X, 10", q.ClientAddress)
	assert.Equal(t, "30 Dias", q.DeliveryTerm)
	assert.Equal(t, "50% Na Entrada", q.PaymentTerms)
	assert.Equal(t, "15 Dias", q.ValidityPeriod)
	assert.Equal(t, "Entrega no térreo", q.Notes)
	assert.Equal(t, "Montagem", q.IncludedItems)
	assert.Equal(t, "Pintura", q.ExcludedItems)
	assert.Equal(t, "Cozinha", q.ProjectName)

	require.Len(t, q.LineItems, 2)

	mesa := q.LineItems[0]
	assert.Equal(t, "Mesa", mesa.Name)
	assert.Equal(t, 2, mesa.Quantity)
	assert.Equal(t, "Tampo em MDF", mesa.Specifications)
	assert.Equal(t, "MDF", mesa.Material)
	assert.InDelta(t, 400.0, mesa.Subtotal, 1e-9)
	assert.InDelta(t, 200.0, mesa.UnitPrice, 1e-9)

	armario := q.LineItems[1]
	assert.Equal(t, "Armário", armario.Name)
	assert.Equal(t, 1, armario.Quantity)
	assert.Equal(t, form.Quote.LineItems[1].Specifications, armario.Specifications)
	assert.Equal(t, "MDF Branco TX P", armario.Material)
	assert.InDelta(t, 1234.56, armario.Subtotal, 1e-9)
}

func TestNewDecoder(t *testing.T) {
	d, err := NewDecoder("", NewValidator(1024))
	require.NoError(t, err)
	assert.Equal(t, DecoderLedongthuc, d.Name())

	_, err = NewDecoder(DecoderNone, NewValidator(1024))
	require.Error(t, err)
	assert.True(t, pdferrors.IsMissingDependency(err))

	_, err = NewDecoder("poppler", NewValidator(1024))
	assert.True(t, pdferrors.IsMissingDependency(err))
}

func TestLedongthucDecoder_RejectsGarbage(t *testing.T) {
	decoder := NewLedongthucDecoder(NewValidator(1024 * 1024))

	tests := []struct {
		name  string
		data  []byte
		check func(error) bool
	}{
		{name: "empty", data: nil, check: pdferrors.IsInvalidInput},
		{name: "not a pdf", data: []byte("hello world"), check: pdferrors.IsDecodeFailure},
		{name: "truncated pdf", data: []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog"), check: pdferrors.IsDecodeFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := decoder.Decode(tt.data)
			require.Error(t, err)
			assert.Nil(t, doc)
			assert.True(t, tt.check(err), "unexpected error type: %v", err)
		})
	}
}
