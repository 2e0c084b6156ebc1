package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/liliang-cn/docflow/internal/domain"
	"github.com/liliang-cn/docflow/internal/oracle"
)

// keywordRules are checked in order; the first rule with a matching term wins
var keywordRules = []struct {
	docType domain.DocumentType
	terms   []string
}{
	{domain.DocumentTypeSetupSpec, []string{"annex a", "anexo a", "setup", "montaje", "decoration", "decoración", "measurements", "medidas", "salón", "hall"}},
	{domain.DocumentTypeRenderThemes, []string{"annex b", "anexo b", "render", "image", "imagen", "visualization", "visualización", "theme", "tema"}},
	{domain.DocumentTypeChangeControl, []string{"annex c", "anexo c", "change", "cambio", "modify", "modificar", "correction", "corrección", "revision", "revisión"}},
	{domain.DocumentTypeFinalDelivery, []string{"annex d", "anexo d", "delivery", "entrega", "final", "payment", "pago", "authorize", "autorizar"}},
}

// ClassifyByKeywords maps text to a document type using ordered keyword rules,
// defaulting to the base contract
func ClassifyByKeywords(text string) domain.DocumentType {
	lower := strings.ToLower(text)
	for _, rule := range keywordRules {
		for _, term := range rule.terms {
			if strings.Contains(lower, term) {
				return rule.docType
			}
		}
	}
	return domain.DocumentTypeBaseContract
}

// Classifier resolves the document type of a conversation. It always returns
// a member of the enumeration.
type Classifier struct {
	oracle  oracle.Classifier
	timeout time.Duration
	logger  *zap.Logger
}

// NewClassifier creates a classifier. A nil oracle means keyword matching only.
func NewClassifier(o oracle.Classifier, timeout time.Duration, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{oracle: o, timeout: timeout, logger: logger.Named("classifier")}
}

// Classify returns the document type for text
func (c *Classifier) Classify(ctx context.Context, text string) domain.DocumentType {
	if c.oracle == nil {
		return ClassifyByKeywords(text)
	}

	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.oracle.Classify(ctx, text)
	if err != nil {
		c.logger.Warn("classification oracle unavailable, using keywords", zap.Error(err))
		return ClassifyByKeywords(text)
	}
	if t, ok := res.Value(); ok && t.Valid() {
		return t
	}
	c.logger.Info("classification output malformed, using keywords", zap.String("raw", truncate(res.Raw(), 80)))
	return ClassifyByKeywords(text)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
