// Package backup persists editor state as JSON snapshots keyed by client and
// minute, and reads them back into forms.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/a3tai/orcamento/internal/quote"
)

var (
	// ErrNotFound is returned when no backup exists under a key.
	ErrNotFound = errors.New("backup not found")
	// ErrIncomplete is returned when a form has no client name or no items.
	ErrIncomplete = errors.New("backup needs a client name and at least one item")
	// ErrInvalidKey is returned for keys that cannot name a backup.
	ErrInvalidKey = errors.New("invalid backup key")
)

const keyTimeLayout = "20060102_1504"

// Item is a line item as stored in backup files.
type Item struct {
	Item           string  `json:"Item"`
	Qtd            float64 `json:"Qtd"`
	Especificacoes string  `json:"Especificações"`
	Material       string  `json:"Material"`
	PrecoUnit      float64 `json:"Preço Unit"`
	Subtotal       float64 `json:"Subtotal"`
}

// Record is the on-disk backup document.
type Record struct {
	Itens              []Item  `json:"itens"`
	ClienteNome        string  `json:"cliente_nome"`
	ClienteTelefone    string  `json:"cliente_telefone"`
	ClienteEndereco    string  `json:"cliente_endereco"`
	ProjetosNome       string  `json:"projetos_nome"`
	Prazo              string  `json:"prazo"`
	Pagamento          string  `json:"pagamento"`
	OrcamentoValidoPor string  `json:"orcamento_valido_por"`
	Observacao         string  `json:"observacao"`
	ItensInclusos      string  `json:"itens_inclusos"`
	ItensNaoInclusos   string  `json:"itens_nao_inclusos"`
	Total              float64 `json:"total"`
	Desconto           float64 `json:"desconto"`
	ValorFinal         float64 `json:"valor_final"`
}

// Entry describes a stored backup without its payload.
type Entry struct {
	Key     string    `json:"key"`
	Client  string    `json:"client"`
	SavedAt time.Time `json:"saved_at"`
}

// Store saves and loads backup records. Saving under an existing key
// replaces the previous record.
type Store interface {
	Save(ctx context.Context, key string, rec Record) error
	Load(ctx context.Context, key string) (Record, error)
	// List returns the backups of client sorted by key, or every backup
	// when client is empty.
	List(ctx context.Context, client string) ([]Entry, error)
	Close() error
}

// Key names a backup of client taken at t.
func Key(client string, t time.Time) string {
	name := strings.NewReplacer("/", "-", `\`, "-").Replace(strings.TrimSpace(client))
	return name + "_" + t.Format(keyTimeLayout)
}

// ValidKey reports whether key can be used as a backup name on any backend.
func ValidKey(key string) bool {
	if key == "" || key == "." || key == ".." {
		return false
	}
	return !strings.ContainsAny(key, "/\\\x00")
}

// FromForm snapshots a form.
func FromForm(f quote.Form) Record {
	q := f.Quote
	rec := Record{
		Itens:              make([]Item, 0, len(q.LineItems)),
		ClienteNome:        q.ClientName,
		ClienteTelefone:    q.ClientPhone,
		ClienteEndereco:    q.ClientAddress,
		ProjetosNome:       q.ProjectName,
		Prazo:              q.DeliveryTerm,
		Pagamento:          q.PaymentTerms,
		OrcamentoValidoPor: q.ValidityPeriod,
		Observacao:         q.Notes,
		ItensInclusos:      q.IncludedItems,
		ItensNaoInclusos:   q.ExcludedItems,
		Total:              f.Total(),
		Desconto:           f.DiscountPercent,
		ValorFinal:         f.FinalValue(),
	}
	for _, li := range q.LineItems {
		rec.Itens = append(rec.Itens, Item{
			Item:           li.Name,
			Qtd:            float64(li.Quantity),
			Especificacoes: li.Specifications,
			Material:       li.Material,
			PrecoUnit:      li.UnitPrice,
			Subtotal:       li.Subtotal,
		})
	}
	return rec
}

// Check reports ErrIncomplete when the record cannot be saved.
func (r Record) Check() error {
	if strings.TrimSpace(r.ClienteNome) == "" || len(r.Itens) == 0 {
		return ErrIncomplete
	}
	return nil
}

// Quote converts the record back into a quote.
func (r Record) Quote() quote.Quote {
	q := quote.Quote{
		ClientName:     r.ClienteNome,
		ClientPhone:    r.ClienteTelefone,
		ClientAddress:  r.ClienteEndereco,
		ProjectName:    r.ProjetosNome,
		DeliveryTerm:   r.Prazo,
		PaymentTerms:   r.Pagamento,
		ValidityPeriod: r.OrcamentoValidoPor,
		Notes:          r.Observacao,
		IncludedItems:  r.ItensInclusos,
		ExcludedItems:  r.ItensNaoInclusos,
		LineItems:      make([]quote.LineItem, 0, len(r.Itens)),
	}
	for _, it := range r.Itens {
		li := quote.LineItem{
			Name:           it.Item,
			Quantity:       int(it.Qtd),
			Specifications: it.Especificacoes,
			Material:       it.Material,
			UnitPrice:      it.PrecoUnit,
			Subtotal:       it.Subtotal,
		}
		if li.UnitPrice == 0 {
			li.UnitPrice = quote.UnitPriceOf(li.Subtotal, li.Quantity)
		}
		q.LineItems = append(q.LineItems, li)
	}
	return q
}

// Form restores the editor state saved in the record.
func (r Record) Form() quote.Form {
	f := quote.NewForm()
	f.Quote = r.Quote()
	f.DiscountPercent = r.Desconto
	return f
}

// Snapshot prepares a form for saving at now.
func Snapshot(f quote.Form, now time.Time) (string, Record, error) {
	rec := FromForm(f)
	if err := rec.Check(); err != nil {
		return "", Record{}, err
	}
	return Key(rec.ClienteNome, now), rec, nil
}

// Decode reads a backup document. Missing keys stay empty.
func Decode(r io.Reader) (Record, error) {
	var rec Record
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return Record{}, fmt.Errorf("failed to decode backup: %w", err)
	}
	return rec, nil
}

// Encode writes rec as indented UTF-8 JSON.
func Encode(w io.Writer, rec Record) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	return nil
}
