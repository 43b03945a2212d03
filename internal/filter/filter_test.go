package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/unicode/norm"
)

type slip struct {
	title  string
	member string
	status string
}

var slipPredicate = New(
	func(s slip) []string { return []string{s.title, s.member} },
	func(s slip) string { return s.status },
)

func TestPredicate_Match(t *testing.T) {
	rec := slip{title: "Nhà Giả Kim", member: "Nguyễn Văn A", status: "active"}

	tests := []struct {
		name string
		q    Query
		want bool
	}{
		{"empty query", Query{}, true},
		{"all status", Query{Status: StatusAll}, true},
		{"title substring", Query{Text: "giả"}, true},
		{"title upper case", Query{Text: "NHÀ GIẢ"}, true},
		{"member substring", Query{Text: "văn a"}, true},
		{"no match", Query{Text: "Harry"}, false},
		{"status equal", Query{Text: "kim", Status: "active"}, true},
		{"status differs", Query{Text: "kim", Status: "overdue"}, false},
		{"status is exact", Query{Status: "Active"}, false},
		{"diacritics are significant", Query{Text: "nha gia kim"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, slipPredicate.Match(rec, tt.q))
		})
	}
}

func TestPredicate_MatchIsSubstringOfSomeField(t *testing.T) {
	// Exhaustive check of the inclusion rule over a small grid of records and queries.
	records := []slip{
		{"Dế Mèn Phiêu Lưu Ký", "Lê C", "returned"},
		{"Tắt Đèn", "Phạm D", "overdue"},
		{"", "", "active"},
		{"Số Đỏ", "", "active"},
	}
	texts := []string{"", "đ", "Đ", "mèn", "lê", "x", "ĐỎ"}
	statuses := []string{"", StatusAll, "active", "overdue", "returned"}

	for _, rec := range records {
		for _, text := range texts {
			for _, status := range statuses {
				q := Query{Text: text, Status: status}
				want := (Contains(rec.title, text) || Contains(rec.member, text)) &&
					(status == "" || status == StatusAll || status == rec.status)
				assert.Equal(t, want, slipPredicate.Match(rec, q), "rec=%+v q=%+v", rec, q)
			}
		}
	}
}

func TestPredicate_NoStatusFunc(t *testing.T) {
	p := New(func(s string) []string { return []string{s} }, nil)

	assert.True(t, p.Match("Tắt Đèn", Query{Text: "đèn"}))
	assert.True(t, p.Match("Tắt Đèn", Query{Text: "đèn", Status: StatusAll}))
	assert.False(t, p.Match("Tắt Đèn", Query{Text: "đèn", Status: "active"}))
}

func TestPredicate_ApplyPreservesOrder(t *testing.T) {
	records := []slip{
		{title: "Số Đỏ", status: "active"},
		{title: "Tắt Đèn", status: "overdue"},
		{title: "Đất Rừng Phương Nam", status: "active"},
	}

	got := slipPredicate.Apply(records, Query{Text: "đ", Status: "active"})
	assert.Equal(t, []slip{records[0], records[2]}, got)

	assert.Empty(t, slipPredicate.Apply(nil, Query{}))
}

func TestContains_NormalizationForms(t *testing.T) {
	composed := "Nhà Giả Kim"
	decomposed := norm.NFD.String(composed)

	assert.NotEqual(t, composed, decomposed)
	assert.True(t, Contains(decomposed, "giả"))
	assert.True(t, Contains(composed, norm.NFD.String("GIẢ")))
}
