package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"
	"go.viam.com/rdk/logging"
	"gopkg.in/yaml.v3"

	pickPlace "pick_place"
)

type RunCommand struct {
	Scenario string `long:"scenario" short:"s" description:"YAML scenario file (default: reference cell)"`
	Debug    bool   `long:"debug" description:"Log every tick"`
	Quiet    bool   `long:"quiet" short:"q" description:"Only print the final table"`
}

func (c *RunCommand) Execute(_ []string) error {
	scenario := ReferenceScenario()
	if c.Scenario != "" {
		var err error
		if scenario, err = LoadScenario(c.Scenario); err != nil {
			return err
		}
	}

	logger := logging.NewLogger("pickplace-sim")
	switch {
	case c.Debug:
		logger.SetLevel(logging.DEBUG)
	case c.Quiet:
		logger.SetLevel(logging.WARN)
	}

	out := io.Writer(os.Stdout)
	if c.Quiet {
		out = io.Discard
	}

	result, err := simulate(context.Background(), scenario, logger, out)
	if err != nil {
		return err
	}

	fmt.Print(renderStatus(scenario.Name, result.ticks, result.statuses))
	fmt.Print(renderTotals(result.totals, sortedKeys(result.totals)))
	if !result.allDone {
		return fmt.Errorf("scenario %q: not all slots completed after %d ticks", scenario.Name, result.ticks)
	}
	fmt.Println(titleStyle.Render(fmt.Sprintf("All %d slots completed in %d ticks", len(result.statuses), result.ticks)))
	return nil
}

type simResult struct {
	ticks    int
	allDone  bool
	statuses []pickPlace.SlotStatus
	totals   map[string]interface{}
}

// simulate ticks the sequencer until every slot is done or MaxTicks is hit.
func simulate(ctx context.Context, s Scenario, logger logging.Logger, out io.Writer) (simResult, error) {
	s.setDefaults()
	if err := s.Validate(); err != nil {
		return simResult{}, err
	}

	cell := newSimCell(s)
	seq, err := pickPlace.NewSequencer(
		s.Cell,
		len(s.InitialPose),
		pickPlace.NewTraversal(s.Threshold, pickPlace.DefaultLegDuration),
		cell.collaborators(),
		nil,
		logger,
	)
	if err != nil {
		return simResult{}, errors.Wrap(err, "failed to build sequencer")
	}

	var tick int
	for tick = 1; tick <= s.MaxTicks; tick++ {
		pose, err := cell.ArmPose(ctx)
		if err != nil {
			return simResult{}, err
		}
		if err := seq.OnArmPose(ctx, pose); err != nil {
			logger.Warnf("Tick %d: %v", tick, err)
		}
		cell.step()

		if tick%s.RenderEvery == 0 {
			fmt.Fprint(out, renderStatus(s.Name, tick, seq.Status()))
		}
		if seq.AllDone() {
			break
		}
	}
	if tick > s.MaxTicks {
		tick = s.MaxTicks
	}

	totals, err := seq.Metrics().Totals()
	if err != nil {
		return simResult{}, err
	}
	return simResult{
		ticks:    tick,
		allDone:  seq.AllDone(),
		statuses: seq.Status(),
		totals:   totals,
	}, nil
}

type ReferenceCommand struct {
	Out string `long:"out" short:"o" description:"Write to file instead of stdout"`
}

func (c *ReferenceCommand) Execute(_ []string) error {
	data, err := yaml.Marshal(ReferenceScenario())
	if err != nil {
		return fmt.Errorf("failed to marshal scenario: %w", err)
	}
	if c.Out == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(c.Out, data, 0644)
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
