package visibility

import (
	"math"
	"testing"
)

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "basic",
			text: "First sentence. Second one! Third?",
			want: []string{"First sentence.", "Second one!", "Third?"},
		},
		{
			name: "decimal point not a terminator",
			text: "Rated 4.5 stars overall. Great value.",
			want: []string{"Rated 4.5 stars overall.", "Great value."},
		},
		{
			name: "no terminator",
			text: "a trailing fragment",
			want: []string{"a trailing fragment"},
		},
		{
			name: "empty",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitSentences(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("SplitSentences(%q) = %v, want %v", tt.text, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("sentence %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestScore_EarlierSentenceWins(t *testing.T) {
	text := "The [ABC123] is great. The [XYZ999] is also good."

	early := Score(text, "ABC123")
	late := Score(text, "XYZ999")

	if early <= late {
		t.Errorf("earlier mention should score higher: ABC123=%v, XYZ999=%v", early, late)
	}
}

func TestScore_NoMention(t *testing.T) {
	if got := Score("No mention here.", "ABC123"); got != 0.0 {
		t.Errorf("expected 0.0 for unmentioned item, got %v", got)
	}
}

func TestScore_EmptyText(t *testing.T) {
	if got := Score("", "ABC123"); got != 0.0 {
		t.Errorf("expected 0.0 for empty text, got %v", got)
	}
}

func TestScore_SharedCitationSplitsCredit(t *testing.T) {
	solo := Score("The [ABC123] is the best choice.", "ABC123")
	shared := Score("Both [ABC123] and [XYZ999] are solid picks.", "ABC123")

	if shared >= solo {
		t.Errorf("sentence citing two items should split credit: shared=%v, solo=%v", shared, solo)
	}

	// Two markers in a one-sentence response halve exp(0) exactly.
	want := math.Round(0.5*10000) / 10000
	if shared != want {
		t.Errorf("expected shared credit %v, got %v", want, shared)
	}
}

func TestScore_ExactDecay(t *testing.T) {
	// Second of two sentences: exp(-1/2) with one citation marker.
	text := "The [AAA111] leads. The [BBB222] follows."
	want := math.Round(math.Exp(-0.5)*10000) / 10000

	if got := Score(text, "BBB222"); got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestScore_MultipleMentionsAccumulate(t *testing.T) {
	text := "The [ABC123] leads. Later the [ABC123] appears again."
	single := Score("The [ABC123] leads. Filler sentence here.", "ABC123")

	if got := Score(text, "ABC123"); got <= single {
		t.Errorf("repeat mentions should accumulate: %v <= %v", got, single)
	}
}
