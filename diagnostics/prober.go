package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/tuikaDLC/Kincord/config"
)

const (
	// PortSearchRange is how many ports above the start FindAvailablePort tries.
	PortSearchRange = 100

	upstreamTimeout = 5 * time.Second

	// FirewallAdvice is reported instead of a real firewall inspection.
	FirewallAdvice = "Check that your firewall allows inbound connections on the configured port."
)

// ErrNoAvailablePort is returned when every port in the search range is taken.
var ErrNoAvailablePort = errors.New("no available port")

// ConnectivityTester probes the Discord webhook.
type ConnectivityTester interface {
	TestConnectivity(ctx context.Context, endpointURL, username string) bool
}

type Prober struct {
	settings    config.Provider
	tester      ConnectivityTester
	http        *http.Client
	log         zerolog.Logger
	upstreamURL func(subdomain string) string
	ownListener func() (running bool, port int)
}

type Option func(*Prober)

func WithLogger(log zerolog.Logger) Option {
	return func(p *Prober) { p.log = log }
}

// WithUpstreamURL overrides how the kintone URL is built from the subdomain.
func WithUpstreamURL(fn func(subdomain string) string) Option {
	return func(p *Prober) { p.upstreamURL = fn }
}

// WithOwnListener lets the prober recognise the relay's own listener so a
// running relay does not report its port as taken.
func WithOwnListener(fn func() (running bool, port int)) Option {
	return func(p *Prober) { p.ownListener = fn }
}

func NewProber(settings config.Provider, tester ConnectivityTester, opts ...Option) *Prober {
	p := &Prober{
		settings: settings,
		tester:   tester,
		http: &http.Client{
			Timeout: upstreamTimeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		log:         zerolog.Nop(),
		upstreamURL: KintoneURL,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// KintoneURL returns the tenant URL for a kintone subdomain.
func KintoneURL(subdomain string) string {
	return fmt.Sprintf("https://%s.cybozu.com", subdomain)
}

// Run executes every check in order. It never fails: problems end up in the
// report's Errors and Warnings.
func (p *Prober) Run(ctx context.Context) Report {
	cfg := p.settings.Current()
	report := Report{CheckedAt: time.Now().UTC()}

	p.check(&report, "port", func() { p.checkPort(&report, cfg.Server.Port) })
	p.check(&report, "discord", func() { p.checkEndpoint(ctx, &report, cfg.Discord) })
	p.check(&report, "kintone", func() { p.checkUpstream(ctx, &report, cfg.Kintone.Subdomain) })
	report.FirewallStatus = FirewallAdvice

	p.log.Info().
		Bool("healthy", report.IsHealthy()).
		Int("errors", len(report.Errors)).
		Int("warnings", len(report.Warnings)).
		Msg("diagnostics completed")

	return report
}

func (p *Prober) check(report *Report, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Interface("panic", r).Str("check", name).Msg("running diagnostics")
			report.addError(fmt.Sprintf("diagnostics error in %s check: %v", name, r))
		}
	}()
	fn()
}

func (p *Prober) checkPort(report *Report, port int) {
	p.log.Info().Int("port", port).Msg("checking port availability")
	if p.ownListener != nil {
		if running, own := p.ownListener(); running && own == port {
			report.PortAvailable = true
			report.addWarning(fmt.Sprintf("Port %d is held by the running relay listener.", port))
			return
		}
	}
	if err := CheckPort(port); err != nil {
		report.PortAvailable = false
		report.addError(fmt.Sprintf("Port %d is already in use.", port))
		return
	}
	report.PortAvailable = true
}

func (p *Prober) checkEndpoint(ctx context.Context, report *Report, cfg config.DiscordConfig) {
	p.log.Info().Msg("testing discord webhook")
	if cfg.WebhookURL == "" {
		report.EndpointReachable = false
		report.addWarning("Discord webhook URL is not configured.")
		return
	}
	report.EndpointReachable = p.tester.TestConnectivity(ctx, cfg.WebhookURL, cfg.Username)
	if !report.EndpointReachable {
		report.addError("Could not reach the Discord webhook. Check the URL.")
	}
}

func (p *Prober) checkUpstream(ctx context.Context, report *Report, subdomain string) {
	if subdomain == "" {
		return
	}
	report.UpstreamChecked = true
	p.log.Info().Str("subdomain", subdomain).Msg("testing kintone connectivity")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.upstreamURL(subdomain), nil)
	if err != nil {
		report.addWarning(fmt.Sprintf("Could not build kintone URL: %v", err))
		return
	}
	resp, err := p.http.Do(req)
	if err != nil {
		p.log.Warn().Err(err).Msg("testing kintone connectivity")
		report.addWarning("Could not reach the kintone subdomain.")
		return
	}
	resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusMovedPermanently, http.StatusFound:
		report.UpstreamReachable = true
	default:
		report.addWarning(fmt.Sprintf("kintone subdomain answered with status %d.", resp.StatusCode))
	}
}

// CheckPort binds the loopback port and releases it immediately.
func CheckPort(port int) error {
	ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	if err != nil {
		return err
	}
	return ln.Close()
}

// FindAvailablePort returns the first bindable port in [start, start+PortSearchRange].
func FindAvailablePort(start int) (int, error) {
	end := start + PortSearchRange
	if end > 65535 {
		end = 65535
	}
	for port := start; port <= end; port++ {
		if CheckPort(port) == nil {
			return port, nil
		}
	}
	return 0, fmt.Errorf("%w in range %d-%d", ErrNoAvailablePort, start, end)
}
