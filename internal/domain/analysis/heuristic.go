package analysis

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/okian/paddock/internal/domain/model"
)

// Default heuristic configuration constants.
const (
	defaultMinLatency = 50 * time.Millisecond
	defaultMaxLatency = 150 * time.Millisecond
	defaultRandomSeed = 42

	baseScore      = 20.0
	unknownForm    = 25.0
	debutForm      = 30.0
	referenceMass  = 500.0
	topFiveLimit   = 5
	paceFastLeader = 3
)

var (
	placingRe = regexp.MustCompile(`(\d+)\s*(?:위|st|nd|rd|th)?`)

	leadWords   = []string{"선행", "lead", "front"}
	closerWords = []string{"추입", "closer", "stretch"}
	upWords     = []string{"최상", "호조", "sharp", "peak"}
	downWords   = []string{"부족", "불안", "layoff", "doubt"}
)

var biasNotes = map[model.Bias]string{
	model.BiasLead:    "front runners are favored today",
	model.BiasCloser:  "closers are favored today",
	model.BiasInside:  "inside gates 1 to 4 are running well",
	model.BiasOutside: "outside gates are getting less kickback",
	model.BiasNeutral: "no track bias",
}

// Heuristic scores participants from recent form, weight, age, gate and the
// session bias. Identical requests produce identical results; only the
// simulated latency varies.
type Heuristic struct {
	minLatency time.Duration
	maxLatency time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewHeuristic creates a Heuristic analyzer.
func NewHeuristic(opts ...Option) *Heuristic {
	h := &Heuristic{
		minLatency: defaultMinLatency,
		maxLatency: defaultMaxLatency,
		rng:        rand.New(rand.NewSource(defaultRandomSeed)), //nolint:gosec // jitter only
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type scored struct {
	gate     int
	name     string
	score    float64
	position string
	key      string
	risk     string
	prob     int
}

// Analyze scores req.Event.
func (h *Heuristic) Analyze(ctx context.Context, req Request) (model.Result, error) {
	if err := h.wait(ctx); err != nil {
		return model.Result{}, err
	}
	parts := req.Event.Participants
	if len(parts) == 0 {
		return model.Result{}, ErrNoParticipants
	}

	field := make([]scored, len(parts))
	known := 0
	for i, p := range parts {
		field[i] = score(i, len(parts), p, req.Bias)
		if p.RecentHistory != model.Unknown && p.Weight > 0 {
			known++
		}
	}
	allocate(field)

	ranked := append([]scored(nil), field...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].prob > ranked[j].prob })

	res := model.Result{
		AppliedWeather:        req.Weather,
		AppliedTrackCondition: req.Track,
		KeyVariable:           keyVariable(req, ranked),
	}
	for _, s := range ranked {
		res.Predictions = append(res.Predictions, model.Prediction{
			ParticipantName:   s.name,
			Gate:              s.gate,
			WinProbability:    float64(s.prob),
			Reasoning:         fmt.Sprintf("gate %d, %s, score %.1f", s.gate, s.key, s.score),
			PredictedPosition: s.position,
			StarRating:        stars(s.prob),
			KeyFactor:         s.key,
			RiskFactor:        s.risk,
		})
	}

	spread := ranked[0].prob
	if len(ranked) > 1 {
		spread -= ranked[1].prob
	}
	completeness := float64(known) / float64(len(parts))
	res.ConfidenceScore = clampInt(int(math.Round(30+completeness*40))+spread, 0, 100)
	res.Betting = betting(ranked, res.ConfidenceScore)
	res.PaceAnalysis = pace(field)
	c := req.Event.Conditions
	res.Summary = fmt.Sprintf("%s race %d over %dm: %s (gate %d) leads the field at %d%%",
		model.CleanLocation(c.Location), c.RaceNumber, c.Distance, ranked[0].name, ranked[0].gate, ranked[0].prob)
	return res, nil
}

func (h *Heuristic) wait(ctx context.Context) error {
	latency := h.minLatency
	if span := h.maxLatency - h.minLatency; span > 0 {
		h.mu.Lock()
		latency += time.Duration(h.rng.Int63n(int64(span)))
		h.mu.Unlock()
	}
	if latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("context cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func score(i, n int, p model.Participant, bias model.Bias) scored {
	gate := model.Gate(i)
	s := scored{gate: gate, name: p.Name, position: position(gate, n, p.Notes)}

	factors := map[string]float64{
		"recent form": form(p.RecentHistory),
	}
	if p.Weight > 0 {
		factors["weight"] = clamp((referenceMass-p.Weight)/4, -10, 10)
	}
	switch {
	case p.Age == 4 || p.Age == 5:
		factors["age"] = 8
	case p.Age == 3 || p.Age == 6:
		factors["age"] = 3
	case p.Age >= 7:
		factors["age"] = -6
	}
	notes := strings.ToLower(p.Notes)
	if containsAny(notes, upWords) {
		factors["condition"] = 6
	}
	if containsAny(notes, downWords) {
		factors["condition"] -= 6
	}
	if b := biasBonus(bias, gate, n, s.position); b != 0 {
		factors["track bias"] = b
	}

	s.score = baseScore
	best, worst := 0.0, 0.0
	s.key, s.risk = "steady profile", "none identified"
	for _, name := range []string{"recent form", "weight", "age", "condition", "track bias"} {
		v, ok := factors[name]
		if !ok {
			continue
		}
		s.score += v
		if v > best {
			best, s.key = v, name
		}
		if v < worst {
			worst, s.risk = v, name
		}
	}
	s.score = math.Max(1, s.score)
	return s
}

// form scores the average placing found in a recent history string.
func form(history string) float64 {
	if history == "" || history == model.Unknown {
		return unknownForm
	}
	var sum, count float64
	for _, m := range placingRe.FindAllStringSubmatch(history, -1) {
		place, err := strconv.Atoi(m[1])
		if err != nil || place < 1 || place > 20 {
			continue
		}
		sum += float64(place)
		count++
	}
	if count == 0 {
		if strings.Contains(history, "신마") || strings.Contains(strings.ToLower(history), "debut") {
			return debutForm
		}
		return unknownForm
	}
	return 60 / (sum / count)
}

func position(gate, n int, notes string) string {
	notes = strings.ToLower(notes)
	switch {
	case containsAny(notes, leadWords):
		return "lead"
	case containsAny(notes, closerWords):
		return "backend"
	case gate*3 <= n:
		return "forward"
	default:
		return "midfield"
	}
}

func biasBonus(bias model.Bias, gate, n int, pos string) float64 {
	switch bias {
	case model.BiasLead:
		if pos == "lead" {
			return 20
		}
	case model.BiasCloser:
		if pos == "backend" {
			return 20
		}
	case model.BiasInside:
		if gate <= 4 {
			return 15
		}
	case model.BiasOutside:
		if gate > n-4 && gate > 4 {
			return 12
		}
	}
	return 0
}

// allocate turns scores into integer percentages summing to 100 using the
// largest remainder method. Ties go to the lower gate.
func allocate(field []scored) {
	var total float64
	for _, s := range field {
		total += s.score
	}
	type rem struct {
		i    int
		frac float64
	}
	rems := make([]rem, len(field))
	left := 100
	for i := range field {
		exact := field[i].score / total * 100
		field[i].prob = int(exact)
		left -= field[i].prob
		rems[i] = rem{i: i, frac: exact - float64(field[i].prob)}
	}
	sort.SliceStable(rems, func(a, b int) bool { return rems[a].frac > rems[b].frac })
	for k := 0; k < left; k++ {
		field[rems[k%len(rems)].i].prob++
	}
}

func stars(prob int) int {
	switch {
	case prob >= 30:
		return 5
	case prob >= 20:
		return 4
	case prob >= 12:
		return 3
	case prob >= 6:
		return 2
	default:
		return 1
	}
}

func betting(ranked []scored, confidence int) model.Betting {
	b := model.Betting{TopFive: []string{}, Quinella: []string{}, Trio: []string{}}
	for i := 0; i < len(ranked) && i < topFiveLimit; i++ {
		b.TopFive = append(b.TopFive, ranked[i].name)
	}
	g := func(i int) int { return ranked[i].gate }
	if len(ranked) >= 2 {
		b.Quinella = append(b.Quinella, combo(g(0), g(1)))
	}
	if len(ranked) >= 3 {
		b.Quinella = append(b.Quinella, combo(g(0), g(2)))
		b.Trio = append(b.Trio, combo(g(0), g(1), g(2)))
	}
	if len(ranked) >= 4 {
		b.Trio = append(b.Trio, combo(g(0), g(1), g(3)))
	}
	switch {
	case confidence >= 70:
		b.StrategyNote = "clear favorite; concentrate on the top combinations"
	case confidence >= 50:
		b.StrategyNote = "open race; spread across the listed combinations"
	default:
		b.StrategyNote = "low confidence; keep stakes small"
	}
	return b
}

func combo(gates ...int) string {
	sort.Ints(gates)
	s := make([]string, len(gates))
	for i, g := range gates {
		s[i] = strconv.Itoa(g)
	}
	return strings.Join(s, "-")
}

func pace(field []scored) string {
	leaders := 0
	for _, s := range field {
		if s.position == "lead" {
			leaders++
		}
	}
	switch {
	case leaders >= paceFastLeader:
		return fmt.Sprintf("%d front runners should make an honest early pace that suits closers", leaders)
	case leaders == 0:
		return "no obvious leader; expect a slow early pace"
	default:
		return fmt.Sprintf("%d likely leader(s) should control a moderate pace", leaders)
	}
}

func keyVariable(req Request, ranked []scored) string {
	if note, ok := biasNotes[req.Bias]; ok && req.Bias != model.BiasNeutral {
		return note
	}
	return ranked[0].key + " of " + ranked[0].name
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
