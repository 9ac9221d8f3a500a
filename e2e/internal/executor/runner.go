package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/saaga0h/jeeves-dns/e2e/internal/checker"
	"github.com/saaga0h/jeeves-dns/e2e/internal/observer"
	"github.com/saaga0h/jeeves-dns/e2e/internal/reporter"
	"github.com/saaga0h/jeeves-dns/e2e/internal/scenario"
	"github.com/saaga0h/jeeves-dns/pkg/mqtt"
	"github.com/saaga0h/jeeves-dns/pkg/redis"
)

// Runner plays scenarios against a running dns-agent
type Runner struct {
	mqtt     mqtt.Client
	redis    redis.Client
	logger   *slog.Logger
	settle   time.Duration
	observer *observer.Observer
	player   *MQTTPlayer
}

// NewRunner creates a runner on connected clients. settle is how long to
// wait after configuring the clock before the first step.
func NewRunner(mqttClient mqtt.Client, redisClient redis.Client, settle time.Duration, logger *slog.Logger) *Runner {
	return &Runner{
		mqtt:     mqttClient,
		redis:    redisClient,
		logger:   logger,
		settle:   settle,
		observer: observer.NewObserver(mqttClient, logger),
		player:   NewMQTTPlayer(mqttClient, logger),
	}
}

// action is a step or a check at a scenario time
type action struct {
	time int
	step *scenario.Step
	exp  *scenario.Expectation
}

// Run executes a scenario. Steps and checks run in time order, steps first
// when both fall on the same second.
func (r *Runner) Run(ctx context.Context, s *scenario.Scenario) (*scenario.TestResult, []reporter.TimelineEvent, error) {
	r.logger.Info("Starting scenario", "name", s.Name, "description", s.Description)

	if err := r.observer.Start(); err != nil {
		return nil, nil, err
	}

	timeScale := 1
	if s.Clock != nil {
		timeScale = s.Clock.TimeScale
		if err := r.player.PublishClock(s.Clock); err != nil {
			return nil, nil, err
		}
		defer func() {
			if err := r.player.ResetClock(); err != nil {
				r.logger.Warn("Failed to reset agent clock", "error", err)
			}
		}()
	}

	if err := waitUntil(ctx, time.Now(), r.settle); err != nil {
		return nil, nil, err
	}

	var actions []action
	for i := range s.Steps {
		actions = append(actions, action{time: s.Steps[i].Time, step: &s.Steps[i]})
	}
	for i := range s.Expectations {
		actions = append(actions, action{time: s.Expectations[i].Time, exp: &s.Expectations[i]})
	}
	sort.SliceStable(actions, func(i, j int) bool {
		if actions[i].time != actions[j].time {
			return actions[i].time < actions[j].time
		}
		return actions[i].step != nil && actions[j].step == nil
	})

	result := &scenario.TestResult{Scenario: s, StartTime: time.Now()}
	var timeline []reporter.TimelineEvent
	if s.Clock != nil {
		timeline = append(timeline, reporter.TimelineEvent{
			Kind:        "clock",
			Description: fmt.Sprintf("virtual start %s at %dx", s.Clock.VirtualStart, s.Clock.TimeScale),
		})
	}

	for _, a := range actions {
		if err := waitUntil(ctx, result.StartTime, scaledOffset(a.time, timeScale)); err != nil {
			return nil, nil, err
		}
		elapsed := time.Since(result.StartTime)

		if a.step != nil {
			if err := r.player.PublishStep(*a.step); err != nil {
				return nil, nil, err
			}
			timeline = append(timeline, reporter.TimelineEvent{
				Elapsed:     elapsed,
				Kind:        "control",
				Description: fmt.Sprintf("%s %v (%s)", a.step.Control, a.step.Payload, a.step.Description),
			})
			continue
		}

		er := r.check(ctx, *a.exp)
		result.Expectations = append(result.Expectations, er)
		if er.Passed {
			result.PassedCount++
			r.logger.Info("Expectation passed", "time", a.time, "description", a.exp.Description)
		} else {
			result.FailedCount++
			r.logger.Warn("Expectation failed", "time", a.time, "description", a.exp.Description, "reason", er.Reason)
		}
		timeline = append(timeline, reporter.TimelineEvent{
			Elapsed:     elapsed,
			Kind:        "check",
			Description: a.exp.Description,
			Success:     er.Passed,
		})
	}

	result.EndTime = time.Now()
	result.Passed = result.FailedCount == 0
	return result, timeline, nil
}

func (r *Runner) check(ctx context.Context, exp scenario.Expectation) scenario.ExpectationResult {
	var passed bool
	var reason string
	var actual interface{}

	switch exp.Kind() {
	case "redis":
		if r.redis == nil {
			reason = "no redis client configured"
			break
		}
		passed, reason, actual = checker.CheckRedis(ctx, r.redis, exp, r.observer.InstanceID())
	default:
		passed, reason, actual = checker.CheckMessages(exp, r.observer.Messages())
	}

	return scenario.ExpectationResult{
		Expectation: exp,
		Passed:      passed,
		Reason:      reason,
		Actual:      actual,
	}
}

// SaveCapture writes everything observed during the run
func (r *Runner) SaveCapture(filename string) error {
	return r.observer.SaveCapture(filename)
}
