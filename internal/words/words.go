// internal/words/words.go
//
// Word source for matches.
//
// Responsibilities:
//   - Load the dictionary from WORDS_FILE or fall back to the embedded default.
//   - Keep two pools: every word (normal mode) and 3-letter words (easy mode).
//   - Supply one random word from the pool selected by Mode.
//
// Constraints:
//   • Lines are trimmed and lowercased; blank lines and "#" comments are skipped.
//   • An empty normal pool is a load error.
//   • An empty easy pool is allowed; Next(ModeEasy) then reports ErrNoWord.

package words

import (
	"bufio"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"sync"

	"github.com/robalobadob/typing-game/assets"
)

// EasyWordLength is the length of words in the easy pool.
const EasyWordLength = 3

// ErrNoWord is returned when the selected pool is empty.
var ErrNoWord = errors.New("words: no word available")

// Mode selects a pool.
type Mode int

const (
	ModeNormal Mode = iota
	ModeEasy
)

func (m Mode) String() string {
	if m == ModeEasy {
		return "easy"
	}
	return "normal"
}

// MarshalText renders the mode name in JSON.
func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// Source supplies the next target word for a mode.
type Source interface {
	Next(mode Mode) (string, error)
}

// Rand yields uniform integers in [0, n).
type Rand interface {
	IntN(n int) int
}

// Dictionary holds both pools. Safe for concurrent use.
type Dictionary struct {
	mu   sync.Mutex // guards rng
	rng  Rand
	full []string
	easy []string
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// New builds a Dictionary from raw lines. A nil rng uses math/rand/v2.
func New(lines []string, rng Rand) *Dictionary {
	if rng == nil {
		rng = globalRand{}
	}
	d := &Dictionary{rng: rng}
	for _, w := range normalize(lines) {
		d.full = append(d.full, w)
		if len([]rune(w)) == EasyWordLength {
			d.easy = append(d.easy, w)
		}
	}
	return d
}

// Load reads the dictionary from path, or the embedded list when path is "".
func Load(path string, rng Rand) (*Dictionary, error) {
	var (
		lines []string
		err   error
	)
	if path != "" {
		lines, err = readWordFile(path)
	} else {
		lines, err = assets.DefaultWords()
	}
	if err != nil {
		return nil, fmt.Errorf("words: load: %w", err)
	}
	d := New(lines, rng)
	if len(d.full) == 0 {
		return nil, errors.New("words: dictionary is empty")
	}
	return d, nil
}

// readWordFile loads one word per line from a file.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out, sc.Err()
}

// normalize trims, lowercases and drops blank or comment lines.
func normalize(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		w := strings.ToLower(strings.TrimSpace(line))
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		out = append(out, w)
	}
	return out
}

// Next returns a random word from the pool for mode.
func (d *Dictionary) Next(mode Mode) (string, error) {
	pool := d.full
	if mode == ModeEasy {
		pool = d.easy
	}
	if len(pool) == 0 {
		return "", fmt.Errorf("%s pool: %w", mode, ErrNoWord)
	}
	d.mu.Lock()
	i := d.rng.IntN(len(pool))
	d.mu.Unlock()
	return pool[i], nil
}

// Stats returns pool sizes: (normal, easy).
func (d *Dictionary) Stats() (full int, easy int) {
	return len(d.full), len(d.easy)
}
