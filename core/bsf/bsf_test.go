package bsf

import (
	"reflect"
	"testing"
)

func TestParse_Empty(t *testing.T) {
	for _, in := range []string{"", " \n \n", "   \n \n", "\t"} {
		if got := Parse(in); len(got) != 0 {
			t.Errorf("Parse(%q) = %v, want empty", in, got)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Span
	}{
		{
			name: "single line",
			in:   "T1\tPERS 103 118\tVasyl Nahirny",
			want: []Span{{ID: "T1", Tag: "PERS", Start: 103, End: 118, Token: "Vasyl Nahirny"}},
		},
		{
			name: "cyrillic token",
			in:   "T1\tPERS 103 118\tВасиль Нагірний",
			want: []Span{{ID: "T1", Tag: "PERS", Start: 103, End: 118, Token: "Василь Нагірний"}},
		},
		{
			name: "two lines",
			in:   "T9\tPERS 778 783\tКарла\nT10\tMISC 814 819\tміста",
			want: []Span{
				{ID: "T9", Tag: "PERS", Start: 778, End: 783, Token: "Карла"},
				{ID: "T10", Tag: "MISC", Start: 814, End: 819, Token: "міста"},
			},
		},
		{
			name: "multi-line body",
			in: "T3\tPERS 220 235\tАндрієм Кіщуком\n" +
				"T4\tMISC 251 285\tА .\nKubler .\nСвітло і тіні маестро\n" +
				"T5\tPERS 363 369\tКіблер",
			want: []Span{
				{ID: "T3", Tag: "PERS", Start: 220, End: 235, Token: "Андрієм Кіщуком"},
				{ID: "T4", Tag: "MISC", Start: 251, End: 285, Token: "А .\nKubler .\nСвітло і тіні маестро"},
				{ID: "T5", Tag: "PERS", Start: 363, End: 369, Token: "Кіблер"},
			},
		},
		{
			name: "surrounding whitespace",
			in:   "\n\n  T2\tLOC 5 10\tKyiv  \n\n",
			want: []Span{{ID: "T2", Tag: "LOC", Start: 5, End: 10, Token: "Kyiv"}},
		},
		{
			name: "leading garbage skipped",
			in:   "#1\tAnnotatorNotes\nT7\tORG 0 3\tНБУ",
			want: []Span{{ID: "T7", Tag: "ORG", Start: 0, End: 3, Token: "НБУ"}},
		},
		{
			name: "header without body",
			in:   "T1\tPERS 1 2",
			want: nil,
		},
		{
			name: "textual order preserved",
			in:   "T2 LOC 50 54 Lviv\nT1 PERS 0 4 Taras",
			want: []Span{
				{ID: "T2", Tag: "LOC", Start: 50, End: 54, Token: "Lviv"},
				{ID: "T1", Tag: "PERS", Start: 0, End: 4, Token: "Taras"},
			},
		},
		{
			name: "information separator between fields",
			in:   "T1\x1cPERS 0 1 a",
			want: []Span{{ID: "T1", Tag: "PERS", Start: 0, End: 1, Token: "a"}},
		},
		{
			name: "information separator trimmed from token",
			in:   "T1 LOC 0 4 Київ\x1f",
			want: []Span{{ID: "T1", Tag: "LOC", Start: 0, End: 4, Token: "Київ"}},
		},
		{
			name: "arabic-indic digit offsets",
			in:   "T1 PERS ١ ٢ a",
			want: []Span{{ID: "T1", Tag: "PERS", Start: 1, End: 2, Token: "a"}},
		},
		{
			name: "arabic-indic digit id",
			in:   "T١ LOC 0 4 Lviv",
			want: []Span{{ID: "T١", Tag: "LOC", Start: 0, End: 4, Token: "Lviv"}},
		},
		{
			name: "mixed digit scripts",
			in:   "T1 LOC 1٠ ۱۲ Lviv",
			want: []Span{{ID: "T1", Tag: "LOC", Start: 10, End: 12, Token: "Lviv"}},
		},
		{
			name: "offset overflow skipped",
			in:   "T1 LOC 0 99999999999999999999999 Lviv\nT2 PERS 0 4 Taras",
			want: []Span{{ID: "T2", Tag: "PERS", Start: 0, End: 4, Token: "Taras"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestParse_MalformedOnly(t *testing.T) {
	if got := Parse("R1\tRel Arg1:T1 Arg2:T2\nnot an entry"); len(got) != 0 {
		t.Errorf("Parse() = %v, want empty", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		spans   []Span
		textLen int
		wantErr bool
	}{
		{"empty", nil, 0, false},
		{"ordered", []Span{{ID: "T1", Start: 0, End: 4}, {ID: "T2", Start: 4, End: 9}}, 9, false},
		{"past end", []Span{{ID: "T1", Start: 0, End: 10}}, 9, true},
		{"negative", []Span{{ID: "T1", Start: -1, End: 2}}, 9, true},
		{"empty range", []Span{{ID: "T1", Start: 3, End: 3}}, 9, true},
		{"overlap", []Span{{ID: "T1", Start: 0, End: 5}, {ID: "T2", Start: 4, End: 8}}, 9, true},
		{"regression", []Span{{ID: "T1", Start: 5, End: 8}, {ID: "T2", Start: 0, End: 2}}, 9, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.spans, tt.textLen)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDigitValue(t *testing.T) {
	tests := []struct {
		r    rune
		want int
	}{
		{'0', 0},
		{'9', 9},
		{'٠', 0},
		{'٧', 7},
		{'۹', 9},
		{'০', 0},
		{'𝟎', 0}, // mathematical bold zero, first of five consecutive runs
		{'𝟗', 9},
		{'𝟘', 0}, // double-struck zero follows bold nine directly
		{'𝟿', 9},
		{'a', -1},
		{'Ⅻ', -1},
	}

	for _, tt := range tests {
		if got := digitValue(tt.r); got != tt.want {
			t.Errorf("digitValue(%q) = %d, want %d", tt.r, got, tt.want)
		}
	}
}
