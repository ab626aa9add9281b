package model

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	recoDomain "github.com/davicafu/tiendalab/internal/recommendation/domain"
)

// FallbackCompleter intenta el backend primario y, si falla, el de respaldo.
// Cada intento tiene su propio timeout; la cancelación del contexto padre
// aborta ambos. Si los dos fallan devuelve ErrExtractionFailed y el llamador
// decide la política (normalmente degradar a consulta sin filtrar).
type FallbackCompleter struct {
	primary   recoDomain.Completer
	secondary recoDomain.Completer
	timeout   time.Duration
	log       *zap.Logger
}

func NewFallbackCompleter(primary, secondary recoDomain.Completer, timeout time.Duration, log *zap.Logger) *FallbackCompleter {
	return &FallbackCompleter{primary: primary, secondary: secondary, timeout: timeout, log: log}
}

func (f *FallbackCompleter) Complete(ctx context.Context, transcript []recoDomain.ChatMessage, prompt string) (string, error) {
	summary, primaryErr := f.tryOne(ctx, f.primary, transcript, prompt)
	if primaryErr == nil {
		return summary, nil
	}
	if ctx.Err() != nil {
		// Petición abandonada: un resultado tardío se descarta, no se aplica.
		return "", fmt.Errorf("%w: %v", recoDomain.ErrExtractionFailed, ctx.Err())
	}
	f.log.Warn("⚠️ Backend primario de extracción falló, probando respaldo", zap.Error(primaryErr))

	summary, secondaryErr := f.tryOne(ctx, f.secondary, transcript, prompt)
	if secondaryErr == nil {
		return summary, nil
	}

	f.log.Warn("⚠️ Ambos backends de extracción fallaron",
		zap.NamedError("primary", primaryErr),
		zap.NamedError("secondary", secondaryErr),
	)
	return "", fmt.Errorf("%w: primary: %v; fallback: %v", recoDomain.ErrExtractionFailed, primaryErr, secondaryErr)
}

func (f *FallbackCompleter) tryOne(ctx context.Context, backend recoDomain.Completer, transcript []recoDomain.ChatMessage, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	return backend.Complete(callCtx, transcript, prompt)
}

// Verificación en tiempo de compilación.
var _ recoDomain.Completer = (*FallbackCompleter)(nil)
