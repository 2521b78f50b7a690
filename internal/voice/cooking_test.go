package voice

import "testing"

func TestDetectCookingCommand(t *testing.T) {
	tests := []struct {
		text    string
		want    CookingCommand
		ok      bool
		seconds int
	}{
		{"siguiente", CookingNext, true, 0},
		{"siguiente paso", CookingNext, true, 0},
		{"paso anterior", CookingPrevious, true, 0},
		{"repite", CookingRepeat, true, 0},
		{"pausa", CookingPause, true, 0},
		{"reanuda", CookingResume, true, 0},
		{"pon un temporizador de 5 minutos", CookingTimer, true, 300},
		{"timer media hora", CookingTimer, true, 1800},
		{"temporizador diez segundos", CookingTimer, true, 10},
		{"pon un temporizador de cuarenta y cinco minutos", CookingTimer, true, 2700},
		{"qué sigue después del paso anterior", "", false, 0},
		{"cuánta sal le pongo", "", false, 0},
		{"", "", false, 0},
	}
	for _, tt := range tests {
		cc, ok := DetectCookingCommand(tt.text)
		if ok != tt.ok {
			t.Errorf("DetectCookingCommand(%q) ok = %v, want %v", tt.text, ok, tt.ok)
			continue
		}
		if !ok {
			continue
		}
		if cc.Command != tt.want {
			t.Errorf("DetectCookingCommand(%q) = %s, want %s", tt.text, cc.Command, tt.want)
		}
		if cc.Seconds != tt.seconds {
			t.Errorf("DetectCookingCommand(%q) seconds = %d, want %d", tt.text, cc.Seconds, tt.seconds)
		}
		if cc.OriginalText != tt.text {
			t.Errorf("original text = %q, want %q", cc.OriginalText, tt.text)
		}
	}
}
