// Package whatsmybill reports the month-to-date AWS bill and posts it to a Slack webhook.
package whatsmybill

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/zack-klein/api.zacharyjklein.com/pkg/commsutil"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/registry"
)

const (
	logPrefix = "whatsmybill:whatsmybill"

	// Name is the resource name in the registry.
	Name = "whatsmybill"

	dateLayout = "2006-01-02"
	posted     = "You just told Zack how much his bill is!"
	footerIcon = "https://cdn.clipart.email/be911c4bc46159c9d2bd76a10526955e_difference-between-azure-and-aws-difference-between_600-600.png"
)

// CostSource reports spend for a date range. *CostExplorer satisfies it.
type CostSource interface {
	AmortizedCost(ctx context.Context, start, end string) (string, error)
}

// Config wires the resource. Costs and WebhookURL may be empty; the actions needing them
// then fail at call time.
type Config struct {
	Costs      CostSource
	WebhookURL string
	Client     *http.Client
	Now        func() time.Time
	NewBackOff func() backoff.BackOff
}

type bill struct {
	cfg Config
}

// New builds the whatsmybill resource.
func New(cfg Config, version string) (*registry.Resource, error) {
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewBackOff == nil {
		cfg.NewBackOff = func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
		}
	}
	b := &bill{cfg: cfg}

	return registry.NewResource("What's my AWS bill?", version,
		registry.Action{
			Name:        "get_bill",
			Description: "Amortized cost between two dates (YYYY-MM-DD).",
			Params: []registry.Param{
				registry.Required("start", registry.KindString, "first day"),
				registry.Required("end", registry.KindString, "last day"),
			},
			Fn: b.getBill,
		},
		registry.Action{
			Name:        "get_this_month",
			Description: "Month-to-date bill; last month's on the 1st.",
			Fn: func(ctx context.Context, _ registry.Args) (interface{}, error) {
				amount, start, end, err := b.thisMonth(ctx)
				if err != nil {
					return nil, err
				}
				return map[string]interface{}{"amount": amount, "start": start, "end": end}, nil
			},
		},
		registry.Action{
			Name:        "post_bill_slack",
			Description: "Post the month-to-date bill to Slack.",
			Fn:          b.postBillSlack,
		},
	)
}

func (b *bill) costs() (CostSource, error) {
	if b.cfg.Costs == nil {
		return nil, fmt.Errorf("no cost source configured")
	}
	return b.cfg.Costs, nil
}

func (b *bill) getBill(ctx context.Context, args registry.Args) (interface{}, error) {
	v, err := args.Strings("start", "end")
	if err != nil {
		return nil, err
	}
	for i, name := range []string{"start", "end"} {
		if _, err := time.Parse(dateLayout, v[i]); err != nil {
			return nil, registry.NewRegistryError(registry.CodeInvalidParameter,
				fmt.Sprintf("Parameter %s must be a YYYY-MM-DD date, got %q", name, v[i]))
		}
	}
	src, err := b.costs()
	if err != nil {
		return nil, err
	}
	return src.AmortizedCost(ctx, v[0], v[1])
}

// MonthToDate returns the billing window for today: the 1st of this month through today,
// or all of last month through yesterday when today is the 1st.
func MonthToDate(today time.Time) (start, end string) {
	first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	if today.Day() == 1 {
		yesterday := today.AddDate(0, 0, -1)
		first = time.Date(yesterday.Year(), yesterday.Month(), 1, 0, 0, 0, 0, today.Location())
		return first.Format(dateLayout), yesterday.Format(dateLayout)
	}
	return first.Format(dateLayout), today.Format(dateLayout)
}

func (b *bill) thisMonth(ctx context.Context) (amount, start, end string, err error) {
	src, err := b.costs()
	if err != nil {
		return "", "", "", err
	}
	start, end = MonthToDate(b.cfg.Now())
	amount, err = src.AmortizedCost(ctx, start, end)
	return amount, start, end, err
}

type slackMessage struct {
	Channel     string            `json:"channel"`
	Attachments []slackAttachment `json:"attachments"`
}

type slackAttachment struct {
	Title      string  `json:"title"`
	Footer     string  `json:"footer"`
	Color      string  `json:"color"`
	FooterIcon string  `json:"footer_icon"`
	Ts         float64 `json:"ts"`
}

func (b *bill) postBillSlack(ctx context.Context, _ registry.Args) (interface{}, error) {
	if b.cfg.WebhookURL == "" {
		return nil, fmt.Errorf("no slack webhook configured")
	}
	amount, start, end, err := b.thisMonth(ctx)
	if err != nil {
		return nil, err
	}
	dollars, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return nil, fmt.Errorf("bill amount %q is not a number: %w", amount, err)
	}

	now := b.cfg.Now()
	body, err := commsutil.EncodePayload(slackMessage{
		Channel: "#alerts",
		Attachments: []slackAttachment{{
			Title:      fmt.Sprintf("Hello! AWS bill from %s -> %s = $%.2f", start, end, dollars),
			Footer:     "AWS",
			Color:      "#2eb886",
			FooterIcon: footerIcon,
			Ts:         float64(now.UnixNano()) / float64(time.Second),
		}},
	})
	if err != nil {
		return nil, err
	}

	err = backoff.Retry(func() error {
		return b.post(ctx, body)
	}, backoff.WithContext(b.cfg.NewBackOff(), ctx))
	if err != nil {
		return nil, err
	}
	slog.Info(fmt.Sprintf("%s - posted bill for %s..%s", logPrefix, start, end))
	return posted, nil
}

func (b *bill) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := b.cfg.Client.Do(req)
	if err != nil {
		slog.Warn(fmt.Sprintf("%s - webhook post failed, retrying: %v", logPrefix, err))
		return err
	}
	resp.Body.Close()
	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("%s - webhook returned %s", logPrefix, resp.Status)
	case resp.StatusCode >= 400:
		return backoff.Permanent(fmt.Errorf("%s - webhook returned %s", logPrefix, resp.Status))
	}
	return nil
}
