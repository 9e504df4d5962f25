package data

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/SarradaHub/pickup-game-manager/internal/conf"
	"github.com/SarradaHub/pickup-game-manager/internal/model"
	pkgerrors "github.com/SarradaHub/pickup-game-manager/pkg/errors"

	"github.com/go-kratos/kratos/v2/log"
)

// HTTPEventPublisher transmits domain events to the external event
// gateway, one synchronous POST per attempt. Retry policy lives in the
// delivery orchestrator, not here.
type HTTPEventPublisher struct {
	cfg    *conf.EventGateway
	http   *http.Client
	logger *log.Helper
}

// NewHTTPEventPublisher creates the publisher. A missing endpoint is not
// an error here; Publish surfaces it per attempt so the orchestrator can
// back off and re-check.
func NewHTTPEventPublisher(cfg *conf.EventGateway, logger log.Logger) *HTTPEventPublisher {
	return &HTTPEventPublisher{
		cfg: cfg,
		http: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 2 * time.Second,
				}).DialContext,
			},
		},
		logger: log.NewHelper(logger),
	}
}

// Publish POSTs the event to <endpoint>/events/<subject>. A non-2xx reply
// is a delivery failure with the status and body captured for diagnostics.
func (p *HTTPEventPublisher) Publish(ctx context.Context, event *model.DomainEvent) error {
	if p.cfg == nil || p.cfg.Endpoint == "" {
		return fmt.Errorf("EVENT_GATEWAY_URL is not configured: %w", pkgerrors.ErrMissingConfiguration)
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", event.EventID, err)
	}

	url := strings.TrimSuffix(p.cfg.Endpoint, "/") + "/events/" + event.Subject

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.cfg.APIKey != "" {
		req.Header.Set("X-API-Key", p.cfg.APIKey)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return &pkgerrors.TransportError{Service: "event-gateway", Attempts: 1, Err: err}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		p.logger.Errorw("msg", "event gateway rejected message",
			"subject", event.Subject,
			"status", resp.StatusCode,
			"body", string(respBody))
		return &pkgerrors.GatewayError{
			Service:    "event-gateway",
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	return nil
}
