package model

import "fmt"

// Validate checks unit bounds, battery parameters, line endpoints and
// cross-table dimensional consistency. It must pass before any model
// construction; constraint generation assumes a validated system.
func (s *System) Validate() error {
	nb := s.Buses()
	if nb == 0 {
		return fmt.Errorf("system has no buses")
	}
	nt := s.Periods()
	if nt == 0 {
		return fmt.Errorf("system has no periods")
	}
	no := s.Scenarios()
	if no == 0 {
		return fmt.Errorf("system has no scenarios")
	}
	if s.BasePower <= 0 {
		return fmt.Errorf("base power must be positive, got %g", s.BasePower)
	}

	groups := []struct {
		name  string
		units []Unit
	}{
		{"candidate generator", s.CandConv},
		{"existing generator", s.ExistConv},
		{"candidate solar", s.CandSolar},
		{"existing solar", s.ExistSolar},
		{"candidate wind", s.CandWind},
		{"existing wind", s.ExistWind},
	}
	for _, g := range groups {
		for i, u := range g.units {
			if err := validateUnit(u, nb); err != nil {
				return fmt.Errorf("%s %d: %w", g.name, i, err)
			}
		}
	}

	for i, b := range s.Batteries {
		if b.Bus < 0 || b.Bus >= nb {
			return fmt.Errorf("battery %d: bus %d out of range [0,%d)", i, b.Bus, nb)
		}
		if b.PMin > b.PMax {
			return fmt.Errorf("battery %d: pmin %g above pmax %g", i, b.PMin, b.PMax)
		}
		if b.QMin > b.QMax {
			return fmt.Errorf("battery %d: qmin %g above qmax %g", i, b.QMin, b.QMax)
		}
		if b.EMin > b.EMax {
			return fmt.Errorf("battery %d: emin %g above emax %g", i, b.EMin, b.EMax)
		}
		if b.EIni < b.EMin || b.EIni > b.EMax {
			return fmt.Errorf("battery %d: initial energy %g outside [%g,%g]", i, b.EIni, b.EMin, b.EMax)
		}
		if b.ChargeEff <= 0 || b.ChargeEff > 1 {
			return fmt.Errorf("battery %d: charge efficiency %g outside (0,1]", i, b.ChargeEff)
		}
		if b.DischargeEff <= 0 || b.DischargeEff > 1 {
			return fmt.Errorf("battery %d: discharge efficiency %g outside (0,1]", i, b.DischargeEff)
		}
	}

	for i, l := range s.Lines {
		if l.From < 0 || l.From >= nb {
			return fmt.Errorf("line %d: from bus %d out of range [0,%d)", i, l.From, nb)
		}
		if l.To < 0 || l.To >= nb {
			return fmt.Errorf("line %d: to bus %d out of range [0,%d)", i, l.To, nb)
		}
		if l.PMax < 0 || l.QMax < 0 {
			return fmt.Errorf("line %d: negative thermal limit", i)
		}
	}

	if err := checkMatrix("pdem", s.DemandP, nt, nb); err != nil {
		return err
	}
	if err := checkMatrix("qdem", s.DemandQ, nt, nb); err != nil {
		return err
	}
	if err := checkMatrix("prep", s.MultP, nt, no); err != nil {
		return err
	}
	if err := checkMatrix("qrep", s.MultQ, nt, no); err != nil {
		return err
	}
	if err := checkMatrix("psol", s.SolarAvail, nt, no); err != nil {
		return err
	}
	if err := checkMatrix("pwin", s.WindAvail, nt, no); err != nil {
		return err
	}
	for o, dt := range s.Durations {
		if dt < 0 {
			return fmt.Errorf("scenario %d: negative duration %g", o, dt)
		}
	}
	return nil
}

func validateUnit(u Unit, buses int) error {
	if u.Bus < 0 || u.Bus >= buses {
		return fmt.Errorf("bus %d out of range [0,%d)", u.Bus, buses)
	}
	if u.PMin > u.PMax {
		return fmt.Errorf("pmin %g above pmax %g", u.PMin, u.PMax)
	}
	if u.QMin > u.QMax {
		return fmt.Errorf("qmin %g above qmax %g", u.QMin, u.QMax)
	}
	return nil
}

func checkMatrix(name string, m [][]float64, rows, cols int) error {
	if len(m) != rows {
		return fmt.Errorf("%s: expected %d period rows, got %d", name, rows, len(m))
	}
	for t, row := range m {
		if len(row) != cols {
			return fmt.Errorf("%s: period %d has %d columns, expected %d", name, t, len(row), cols)
		}
	}
	return nil
}
