package extract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pdferrors "github.com/a3tai/orcamento/internal/pdf/errors"
	"github.com/a3tai/orcamento/internal/quote"
)

var standardHeader = []string{"Item", "Qtd", "Especificações", "Material", "Subtotal"}

const fullText = `Marcenaria Exemplo
Rua das Oficinas, 100
Data: 05/03/2025
Orçamento
Cliente: Maria Silva
Telefone: (47) 99999-0000
Endereço: Rua X, 10

Item Qtd Especificações Material Subtotal
Mesa 2 Tampo em MDF MDF R$ 400,00
Total Geral: R$ 400,00
Condições:
Prazo de entrega: 30 dias úteis
Forma de pagamento: 50% na entrada
Orçamento válido por: 15 dias
Observações: entrega no térreo
sem elevador

Itens inclusos: montagem e frete

Itens não inclusos: pintura da parede

Projetos: Cozinha Planejada
Móveis conforme projetos com garantia de dois anos.`

func TestExtract_TableRow(t *testing.T) {
	tables := []Table{{
		standardHeader,
		{"Mesa", "2", "Tampo em MDF", "MDF", "R$ 400,00"},
	}}

	q, err := Extract("", tables)
	require.NoError(t, err)
	require.Len(t, q.LineItems, 1)

	item := q.LineItems[0]
	assert.Equal(t, "Mesa", item.Name)
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, "Tampo em MDF", item.Specifications)
	assert.Equal(t, "MDF", item.Material)
	assert.InDelta(t, 400.0, item.Subtotal, 1e-9)
	assert.InDelta(t, 200.0, item.UnitPrice, 1e-9)
}

func TestExtract_TableRowFiltering(t *testing.T) {
	tests := []struct {
		name      string
		rows      [][]string
		wantNames []string
	}{
		{
			name: "empty and zero subtotals are dropped",
			rows: [][]string{
				{"Mesa", "1", "", "", ""},
				{"Cadeira", "4", "", "", "R$ 0,00"},
				{"Balcão", "1", "", "", "R$ 1.234,56"},
			},
			wantNames: []string{"Balcão"},
		},
		{
			name: "summary rows are skipped",
			rows: [][]string{
				{"Armário", "1", "", "", "R$ 2.000,00"},
				{"Total Geral R$ 1.234,56", "", "", "", "R$ 1.234,56"},
				{"Condições de pagamento", "", "", "", "R$ 10,00"},
				{"Observações", "", "", "", "R$ 10,00"},
			},
			wantNames: []string{"Armário"},
		},
		{
			name: "missing name is dropped",
			rows: [][]string{
				{"", "1", "", "", "R$ 50,00"},
			},
		},
		{
			name: "short rows read missing cells as empty",
			rows: [][]string{
				{"Prateleira"},
				{"Nicho", "2", "", "", "R$ 90,00"},
			},
			wantNames: []string{"Nicho"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid := append([][]string{standardHeader}, tt.rows...)
			items := tableItems([]Table{grid})

			var names []string
			for _, it := range items {
				names = append(names, it.Name)
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}

func TestExtract_TableDefaults(t *testing.T) {
	tables := []Table{{
		{"Item", "Valor"},
		{"Painel ripado", "R$ 1.234,56"},
	}}

	q, err := Extract("", tables)
	require.NoError(t, err)
	require.Len(t, q.LineItems, 1)

	item := q.LineItems[0]
	assert.Equal(t, 1, item.Quantity, "quantity defaults to 1 without a quantity column")
	assert.Empty(t, item.Specifications)
	assert.Empty(t, item.Material)
	assert.InDelta(t, 1234.56, item.Subtotal, 1e-9)
	assert.InDelta(t, 1234.56, item.UnitPrice, 1e-9)
}

func TestExtract_TablesKeepOrder(t *testing.T) {
	tables := []Table{
		{standardHeader, {"A", "1", "", "", "R$ 1,00"}, {"B", "1", "", "", "R$ 2,00"}},
		{{"Item"}},
		{standardHeader, {"C", "1", "", "", "R$ 3,00"}},
	}

	q, err := Extract("", tables)
	require.NoError(t, err)
	require.Len(t, q.LineItems, 3)
	assert.Equal(t, "A", q.LineItems[0].Name)
	assert.Equal(t, "B", q.LineItems[1].Name)
	assert.Equal(t, "C", q.LineItems[2].Name)
}

func TestExtract_Fields(t *testing.T) {
	text := "Cliente: Maria Silva\nTelefone: (47) 99999-0000\nEndereço: Rua X, 10\n\nItem ..."

	q, err := Extract(text, nil)
	require.NoError(t, err)
	assert.Equal(t, "Maria Silva", q.ClientName)
	assert.Equal(t, "(47) 99999-0000", q.ClientPhone)
	assert.Equal(t, "Rua X, 10", q.ClientAddress)
	assert.Empty(t, q.DeliveryTerm)
	assert.Empty(t, q.ProjectName)
	assert.Empty(t, q.LineItems)
}

func TestExtract_NoItemsIsEmptyList(t *testing.T) {
	q, err := Extract("Cliente: Maria Silva\nTelefone: 1", nil)
	require.NoError(t, err)
	require.NotNil(t, q.LineItems)
	assert.Len(t, q.LineItems, 0)

	data, err := json.Marshal(q)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"line_items":[]`)
}

func TestExtract_FullDocument(t *testing.T) {
	q, err := Extract(fullText, nil)
	require.NoError(t, err)

	assert.Equal(t, "Maria Silva", q.ClientName)
	assert.Equal(t, "(47) 99999-0000", q.ClientPhone)
	assert.Equal(t, "Rua X, 10", q.ClientAddress)
	assert.Equal(t, "30 Dias Úteis", q.DeliveryTerm)
	assert.Equal(t, "50% Na Entrada", q.PaymentTerms)
	assert.Equal(t, "15 Dias", q.ValidityPeriod)
	assert.Equal(t, "Entrega no térreo\nsem elevador", q.Notes)
	assert.Equal(t, "Montagem e frete", q.IncludedItems)
	assert.Equal(t, "Pintura da parede", q.ExcludedItems)
	assert.Equal(t, "Cozinha Planejada", q.ProjectName)

	// No grids, so the flowed item row is picked up by the line scan.
	require.Len(t, q.LineItems, 1)
	item := q.LineItems[0]
	assert.Equal(t, "Mesa Tampo em MDF MDF", item.Name)
	assert.Equal(t, 2, item.Quantity)
	assert.InDelta(t, 400.0, item.Subtotal, 1e-9)
	assert.InDelta(t, 200.0, item.UnitPrice, 1e-9)
}

func TestExtract_FirstMatchWins(t *testing.T) {
	q, err := Extract("Móveis conforme projetos com garantia.\nProjetos: Sala", nil)
	require.NoError(t, err)
	assert.Equal(t, "Com Garantia.", q.ProjectName)
}

func TestExtract_ExcludedItemsRunToEndOfText(t *testing.T) {
	q, err := Extract("Itens não inclusos: eletrodomésticos", nil)
	require.NoError(t, err)
	assert.Equal(t, "Eletrodomésticos", q.ExcludedItems)
}

func TestExtract_TablesWinOverLineScan(t *testing.T) {
	tables := []Table{{standardHeader, {"Gaveteiro", "1", "", "", "R$ 300,00"}}}

	q, err := Extract(fullText, tables)
	require.NoError(t, err)
	require.Len(t, q.LineItems, 1)
	assert.Equal(t, "Gaveteiro", q.LineItems[0].Name)
}

func TestLineItems(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		items []quote.LineItem
	}{
		{
			name: "no header means no capture",
			text: "Mesa 1 R$ 100,00",
		},
		{
			name: "last currency amount is the subtotal",
			text: "Item Subtotal\nMesa R$ 50,00 unidade R$ 1.500,00\nValor Final R$ 1.500,00",
			items: []quote.LineItem{
				quote.NewLineItem("Mesa", 1, "", "", 1500),
			},
		},
		{
			name: "last whole number before currency is the quantity",
			text: "Item Qtd Subtotal\nArmário 3 portas 2 R$ 900,00",
			items: []quote.LineItem{
				quote.NewLineItem("Armário portas", 2, "", "", 900),
			},
		},
		{
			name: "capture stops at conditions",
			text: "ITEM  SUBTOTAL\nMesa 1 R$ 10,00\nCondições:\nCadeira 1 R$ 20,00",
			items: []quote.LineItem{
				quote.NewLineItem("Mesa", 1, "", "", 10),
			},
		},
		{
			name: "lines without currency are ignored",
			text: "Item Subtotal\ncontinuação da descrição\nBalcão 1 R$ 10,00",
			items: []quote.LineItem{
				quote.NewLineItem("Balcão", 1, "", "", 10),
			},
		},
		{
			name: "zero subtotal is rejected",
			text: "Item Subtotal\nBrinde 1 R$ 0,00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.items, lineItems(tt.text))
		})
	}
}

func TestExtract_Idempotent(t *testing.T) {
	tables := []Table{{standardHeader, {"Mesa", "2", "Tampo", "MDF", "R$ 400,00"}}}

	first, err := Extract(fullText, tables)
	require.NoError(t, err)
	second, err := Extract(fullText, tables)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExtract_RecoversPanics(t *testing.T) {
	// Swap in a rule whose setter panics.
	saved := compiledFields
	defer func() { compiledFields = saved }()
	compiledFields = compileFields([]fieldRule{{
		label:  "cliente",
		stops:  []string{"telefone"},
		format: titleCase,
		set:    func(*quote.Quote, string) { panic("boom") },
	}})

	q, err := Extract("Cliente: Maria Silva\nTelefone: 1", nil)
	require.Error(t, err)
	assert.True(t, pdferrors.IsExtractionFailure(err))
	assert.Equal(t, quote.Quote{}, q)
}
