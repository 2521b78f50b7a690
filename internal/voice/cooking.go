package voice

import (
	"strconv"
	"strings"
)

// CookingCommand is a recipe-guide control.
type CookingCommand string

const (
	CookingNext     CookingCommand = "next"
	CookingPrevious CookingCommand = "previous"
	CookingRepeat   CookingCommand = "repeat"
	CookingPause    CookingCommand = "pause"
	CookingResume   CookingCommand = "resume"
	CookingTimer    CookingCommand = "timer"
)

// CookingControl is the event handed to the recipe guide. The voice
// pipeline never advances recipe state itself.
type CookingControl struct {
	Command      CookingCommand `json:"command"`
	OriginalText string         `json:"originalText"`
	Seconds      int            `json:"seconds,omitempty"`
}

// Order matters: "continua" is listed under next before resume.
var cookingTable = []struct {
	cmd      CookingCommand
	keywords []string
}{
	{CookingNext, foldAll("siguiente", "siguiente paso", "continua", "avanza", "next")},
	{CookingPrevious, foldAll("anterior", "paso anterior", "atrás", "regresa", "vuelve")},
	{CookingRepeat, foldAll("repite", "repetir", "otra vez", "de nuevo")},
	{CookingPause, foldAll("pausa", "pausar", "detén", "espera")},
	{CookingResume, foldAll("reanuda", "reanudar")},
	{CookingTimer, foldAll("timer", "temporizador", "cronómetro", "avísame en", "alerta en")},
}

var (
	cookingVerbs         = foldAll("ve", "pasa", "avanza", "lee", "di", "dime", "pon", "inicia")
	cookingQuestionWords = foldAll("qué", "cuál", "cómo")
)

var numberWords = map[string]int{
	"un": 1, "uno": 1, "una": 1, "dos": 2, "tres": 3, "cuatro": 4, "cinco": 5,
	"seis": 6, "siete": 7, "ocho": 8, "nueve": 9, "diez": 10, "quince": 15,
	"veinte": 20, "treinta": 30, "cuarenta": 40, "sesenta": 60,
}

// DetectCookingCommand recognizes a recipe-guide control in text. A control
// keyword counts when the utterance is three words or fewer, or when it
// carries a command verb and is not phrased as a question.
func DetectCookingCommand(text string) (CookingControl, bool) {
	pt := newPhraseText(text)
	if pt.wordCount() == 0 {
		return CookingControl{}, false
	}

	var cmd CookingCommand
	for _, row := range cookingTable {
		if pt.hasAny(row.keywords) {
			cmd = row.cmd
			break
		}
	}
	if cmd == "" {
		return CookingControl{}, false
	}

	isCommand := false
	switch {
	case pt.wordCount() <= 3:
		isCommand = true
	case pt.hasAny(cookingQuestionWords):
		isCommand = false
	case pt.hasAny(cookingVerbs):
		isCommand = true
	}
	if !isCommand {
		return CookingControl{}, false
	}

	cc := CookingControl{Command: cmd, OriginalText: text}
	if cmd == CookingTimer {
		cc.Seconds = parseDurationSeconds(pt)
	}
	return cc, true
}

// parseDurationSeconds reads "5 minutos", "diez segundos", "una hora" or
// "media hora". Digits without a unit are minutes; number words need a unit
// so the article in "un temporizador" is not read as one.
func parseDurationSeconds(pt phraseText) int {
	if pt.has("media hora") {
		return 1800
	}
	for i := 0; i < len(pt.words); i++ {
		n, err := strconv.Atoi(pt.words[i])
		isDigit := err == nil
		next := i + 1
		if !isDigit {
			var ok bool
			if n, ok = numberWords[pt.words[i]]; !ok {
				continue
			}
			// "cuarenta y cinco"
			if i+2 < len(pt.words) && pt.words[i+1] == "y" {
				if m, ok := numberWords[pt.words[i+2]]; ok && m < 10 {
					n += m
					next = i + 3
				}
			}
		}
		if next < len(pt.words) {
			switch w := pt.words[next]; {
			case strings.HasPrefix(w, "segundo"):
				return n
			case strings.HasPrefix(w, "minuto"):
				return n * 60
			case strings.HasPrefix(w, "hora"):
				return n * 3600
			}
		}
		if isDigit {
			return n * 60
		}
	}
	return 0
}
