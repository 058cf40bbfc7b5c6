package exchange

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// Funding cycle synthesis: most venues settle every eight hours and several of
// them only report the timestamp of the last settlement.
const defaultCycleHours = 8

const defaultCycleMillis = int64(defaultCycleHours) * 60 * 60 * 1000

// FundingInfo is the common triple extracted from every exchange response.
type FundingInfo struct {
	// Rate is the funding rate as a percentage (exchange APIs report a
	// fraction; adapters multiply by 100).
	Rate decimal.Decimal
	// NextSettle is the next settlement time in epoch milliseconds.
	NextSettle int64
	// CycleHours is the funding interval length.
	CycleHours int
}

// Exchange bundles everything the monitor needs from one venue: symbol
// discovery and the current funding rate per symbol.
type Exchange interface {
	Name() string
	FetchSymbols(ctx context.Context) ([]string, error)
	FetchFunding(ctx context.Context, symbol string) (FundingInfo, error)
}

// FailKind classifies fetch failures so callers can decide between retrying,
// skipping, and logging.
type FailKind int

const (
	// FailTransient covers transport-level problems: the symbol may well
	// succeed on the next pass.
	FailTransient FailKind = iota + 1
	// FailPermanent covers responses that do not carry funding data at all,
	// typically a delisted symbol or an unexpected payload shape.
	FailPermanent
)

// FetchError carries the failure classification alongside the cause.
type FetchError struct {
	Exchange string
	Kind     FailKind
	Err      error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case FailTransient:
		return fmt.Sprintf("%s: transient: %v", e.Exchange, e.Err)
	default:
		return fmt.Sprintf("%s: no funding data: %v", e.Exchange, e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

func transientErr(exchange string, err error) error {
	return &FetchError{Exchange: exchange, Kind: FailTransient, Err: err}
}

func permanentErr(exchange string, err error) error {
	return &FetchError{Exchange: exchange, Kind: FailPermanent, Err: err}
}

// Classify extracts the failure kind from an error chain. Unclassified errors
// count as transient so that a pass never writes them off for good.
func Classify(err error) FailKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return FailTransient
}

// Options override adapter endpoints, mainly for tests.
type Options struct {
	BaseURL string
	Client  *http.Client
}

func (o Options) client() *httpClient {
	c := o.Client
	if c == nil {
		c = &http.Client{Timeout: 15 * time.Second}
	}
	return &httpClient{http: c}
}

// Registry returns the default adapter set, one per supported venue, in the
// order symbols and alert lines are reported.
func Registry() []Exchange {
	return []Exchange{
		NewBinance(Options{}),
		NewBybit(Options{}),
		NewOKX(Options{}),
		NewMEXC(Options{}),
		NewBitget(Options{}),
	}
}

// Names lists the supported exchange identifiers in registry order.
func Names() []string {
	reg := Registry()
	names := make([]string, len(reg))
	for i, ex := range reg {
		names[i] = ex.Name()
	}
	return names
}
