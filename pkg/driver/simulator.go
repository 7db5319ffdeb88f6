package driver

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"

	"github.com/benita-io/benita-go/pkg/sensor"
)

// Simulator is an in-process EZO circuit. It keeps the settings a real
// circuit would (LED, lock, calibration points, scale) and answers the
// ASCII command set of its kind.
type Simulator struct {
	kind sensor.Kind

	mu       sync.Mutex
	closed   bool
	asleep   bool
	led      bool
	plock    bool
	calPts   int
	comp     float64
	probeK   string
	outputs  map[string]bool
	scale    string
	interval uint64
	memory   []float64
	reading  float64
	jitter   bool
}

// NewSimulator creates a simulator for kind with factory settings.
func NewSimulator(kind sensor.Kind) *Simulator {
	s := &Simulator{
		kind:    kind,
		led:     true,
		comp:    25.0,
		probeK:  "1.0",
		scale:   "c",
		outputs: map[string]bool{"EC": true, "TDS": true, "S": true, "SG": true},
	}
	switch kind {
	case sensor.KindConductivity:
		s.reading = 1413
	case sensor.KindPH:
		s.reading = 7.0
	default:
		s.reading = 21.5
	}
	return s
}

// SetJitter enables small random variation on readings.
func (s *Simulator) SetJitter(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jitter = on
}

// Kind returns the simulated sensor kind.
func (s *Simulator) Kind() sensor.Kind {
	return s.kind
}

// Transact answers req like a circuit would. Wait is not simulated.
func (s *Simulator) Transact(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", ErrClosed
	}
	// Any command wakes a sleeping circuit; the waking command is discarded.
	if s.asleep {
		s.asleep = false
		if req.NoReply {
			return "", nil
		}
		return "", ErrNoData
	}

	answer, err := s.handle(req.Command)
	if err != nil {
		return "", err
	}
	if req.NoReply {
		return "", nil
	}
	return answer, nil
}

// Close marks the simulator closed. It is safe to call more than once.
func (s *Simulator) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// String returns the simulator path.
func (s *Simulator) String() string {
	return "sim:" + s.kind.String()
}

func (s *Simulator) handle(cmd string) (string, error) {
	fields := strings.Split(cmd, ",")
	head := strings.ToUpper(fields[0])
	args := fields[1:]

	switch head {
	case "R":
		return s.read(), nil
	case "I":
		return fmt.Sprintf("?I,%s,2.10", s.deviceCode()), nil
	case "STATUS":
		return "?STATUS,P,5.038", nil
	case "FIND":
		return "", nil
	case "SLEEP":
		s.asleep = true
		return "", nil
	case "L":
		return s.toggle(&s.led, "?L", args)
	case "PLOCK":
		return s.toggle(&s.plock, "?PLOCK", args)
	case "CAL":
		return s.calibrate(args)
	case "T":
		return s.compensation(args)
	case "EXPORT":
		if len(args) == 1 && args[0] == "?" {
			return "10,120", nil
		}
		return "59 6F 75 20 61 72", nil
	case "IMPORT":
		if len(args) != 1 || args[0] == "" {
			return "", ErrSyntax
		}
		return "", nil
	}

	switch s.kind {
	case sensor.KindConductivity:
		return s.handleConductivity(head, args)
	case sensor.KindPH:
		return s.handlePH(head, args)
	default:
		return s.handleTemperature(head, args)
	}
}

func (s *Simulator) handleConductivity(head string, args []string) (string, error) {
	switch head {
	case "K":
		if len(args) != 1 {
			return "", ErrSyntax
		}
		if args[0] == "?" {
			return "?K," + s.probeK, nil
		}
		if _, err := strconv.ParseFloat(args[0], 64); err != nil {
			return "", ErrSyntax
		}
		s.probeK = args[0]
		return "", nil
	case "O":
		if len(args) == 1 && args[0] == "?" {
			enabled := []string{"?O"}
			for _, p := range []string{"EC", "TDS", "S", "SG"} {
				if s.outputs[p] {
					enabled = append(enabled, p)
				}
			}
			return strings.Join(enabled, ","), nil
		}
		if len(args) != 2 {
			return "", ErrSyntax
		}
		param := strings.ToUpper(args[0])
		if _, ok := s.outputs[param]; !ok {
			return "", ErrSyntax
		}
		s.outputs[param] = args[1] == "1"
		return "", nil
	}
	return "", ErrSyntax
}

func (s *Simulator) handlePH(head string, args []string) (string, error) {
	if head == "SLOPE" && len(args) == 1 && args[0] == "?" {
		return "?SLOPE,99.7,100.3,-0.89", nil
	}
	return "", ErrSyntax
}

func (s *Simulator) handleTemperature(head string, args []string) (string, error) {
	switch head {
	case "S":
		if len(args) != 1 {
			return "", ErrSyntax
		}
		switch v := strings.ToLower(args[0]); v {
		case "?":
			return "?S," + s.scale, nil
		case "c", "f", "k":
			s.scale = v
			return "", nil
		}
	case "D":
		if len(args) != 1 {
			return "", ErrSyntax
		}
		if args[0] == "?" {
			return "?D," + strconv.FormatUint(s.interval, 10), nil
		}
		n, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return "", ErrSyntax
		}
		s.interval = n
		return "", nil
	case "M":
		switch {
		case len(args) == 0:
			if len(s.memory) == 0 {
				return "0,0", nil
			}
			parts := make([]string, 0, len(s.memory)*2)
			for i, v := range s.memory {
				parts = append(parts, strconv.Itoa(i+1), formatReading(v))
			}
			return strings.Join(parts, ","), nil
		case args[0] == "?":
			if len(s.memory) == 0 {
				return "0,0", nil
			}
			n := len(s.memory)
			return fmt.Sprintf("%d,%s", n, formatReading(s.memory[n-1])), nil
		case strings.EqualFold(args[0], "clear"):
			s.memory = nil
			return "", nil
		}
	}
	return "", ErrSyntax
}

func (s *Simulator) toggle(flag *bool, label string, args []string) (string, error) {
	if len(args) != 1 {
		return "", ErrSyntax
	}
	switch args[0] {
	case "?":
		if *flag {
			return label + ",1", nil
		}
		return label + ",0", nil
	case "0":
		*flag = false
	case "1":
		*flag = true
	default:
		return "", ErrSyntax
	}
	return "", nil
}

func (s *Simulator) calibrate(args []string) (string, error) {
	if len(args) == 0 {
		return "", ErrSyntax
	}
	switch strings.ToLower(args[0]) {
	case "?":
		return "?CAL," + strconv.Itoa(s.calPts), nil
	case "clear":
		s.calPts = 0
		return "", nil
	case "dry":
		return "", nil
	case "mid", "low", "high":
		if len(args) != 2 {
			return "", ErrSyntax
		}
		if _, err := strconv.ParseFloat(args[1], 64); err != nil {
			return "", ErrSyntax
		}
	default:
		if len(args) != 1 {
			return "", ErrSyntax
		}
		if _, err := strconv.ParseFloat(args[0], 64); err != nil {
			return "", ErrSyntax
		}
	}
	if s.calPts < 3 {
		s.calPts++
	}
	return "", nil
}

func (s *Simulator) compensation(args []string) (string, error) {
	if len(args) != 1 {
		return "", ErrSyntax
	}
	if args[0] == "?" {
		return "?T," + formatReading(s.comp), nil
	}
	v, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return "", ErrSyntax
	}
	s.comp = v
	return "", nil
}

func (s *Simulator) read() string {
	v := s.reading
	if s.jitter {
		v += (rand.Float64() - 0.5) * v * 0.002
	}
	if s.kind == sensor.KindTemperature {
		switch s.scale {
		case "f":
			v = v*9/5 + 32
		case "k":
			v += 273.15
		}
		s.memory = append(s.memory, v)
		return formatReading(v)
	}
	if s.kind == sensor.KindConductivity {
		var parts []string
		if s.outputs["EC"] {
			parts = append(parts, strconv.FormatFloat(v, 'f', 0, 64))
		}
		if s.outputs["TDS"] {
			parts = append(parts, strconv.FormatFloat(v*0.54, 'f', 0, 64))
		}
		if s.outputs["S"] {
			parts = append(parts, "0.70")
		}
		if s.outputs["SG"] {
			parts = append(parts, "1.00")
		}
		return strings.Join(parts, ",")
	}
	return formatReading(v)
}

func (s *Simulator) deviceCode() string {
	switch s.kind {
	case sensor.KindConductivity:
		return "EC"
	case sensor.KindPH:
		return "pH"
	default:
		return "RTD"
	}
}

func formatReading(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
