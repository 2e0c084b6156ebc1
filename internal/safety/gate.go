// Package safety screens user text before any other component sees it.
package safety

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"github.com/liliang-cn/docflow/internal/oracle"
)

// ModerationUnverified is the warning raised when the moderation oracle fails
const ModerationUnverified = "content moderation could not be verified"

// Verdict is the combined outcome of both checks
type Verdict struct {
	Blocked           bool     `json:"blocked"`
	Warnings          []string `json:"warnings"`
	SensitiveBlocked  bool     `json:"sensitive_blocked"`
	ModerationBlocked bool     `json:"moderation_blocked"`
}

// Gate runs the sensitive-data scan and the moderation oracle concurrently
type Gate struct {
	scanner   *Scanner
	moderator oracle.Moderator
	timeout   time.Duration
	logger    *zap.Logger
}

// NewGate creates a gate. moderator may be nil, in which case moderation is skipped.
func NewGate(scanner *Scanner, moderator oracle.Moderator, timeout time.Duration, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		scanner:   scanner,
		moderator: moderator,
		timeout:   timeout,
		logger:    logger.Named("safety"),
	}
}

// Check screens text. It never fails: moderation errors pass with a warning.
func (g *Gate) Check(ctx context.Context, text string) Verdict {
	var (
		scan       ScanResult
		modBlocked bool
		modWarns   []string
	)

	var wg conc.WaitGroup
	wg.Go(func() {
		scan = g.scanner.Scan(text)
	})
	wg.Go(func() {
		modBlocked, modWarns = g.moderate(ctx, text)
	})
	wg.Wait()

	warnings := make([]string, 0, len(scan.Warnings)+len(modWarns))
	warnings = append(warnings, scan.Warnings...)
	warnings = append(warnings, modWarns...)

	v := Verdict{
		Blocked:           scan.Blocked || modBlocked,
		Warnings:          warnings,
		SensitiveBlocked:  scan.Blocked,
		ModerationBlocked: modBlocked,
	}
	if v.Blocked {
		g.logger.Info("turn blocked",
			zap.Bool("sensitive", v.SensitiveBlocked),
			zap.Bool("moderation", v.ModerationBlocked),
			zap.Int("warnings", len(v.Warnings)),
		)
	}
	return v
}

func (g *Gate) moderate(ctx context.Context, text string) (bool, []string) {
	if g.moderator == nil {
		return false, nil
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	verdict, err := g.moderator.Moderate(ctx, text)
	if err != nil {
		g.logger.Warn("moderation unavailable, passing turn", zap.Error(err))
		return false, []string{ModerationUnverified}
	}
	if !verdict.Flagged {
		return false, nil
	}
	categories := "unspecified"
	if len(verdict.Categories) > 0 {
		categories = strings.Join(verdict.Categories, ", ")
	}
	return true, []string{fmt.Sprintf("inappropriate content detected: %s", categories)}
}
