package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"rightguard/internal/client/gateway"
)

// ErrUserNotFound is returned by GetUser when no identity has the handle.
var ErrUserNotFound = errors.New("user not found")

// ErrRecordNotFound is returned by Delete for a missing or foreign record.
var ErrRecordNotFound = errors.New("record not found or access denied")

// Services bundles the per-domain clients over one gateway.
type Services struct {
	Auth       Auth
	Guides     Guides
	Recordings Recordings
	Alerts     Alerts
	Payments   Payments
}

func New(c *gateway.Client) *Services {
	return &Services{
		Auth:       Auth{C: c},
		Guides:     Guides{C: c},
		Recordings: Recordings{C: c},
		Alerts:     Alerts{C: c},
		Payments:   Payments{C: c},
	}
}

type Auth struct{ C *gateway.Client }

func (a Auth) CreateOrUpdateUser(ctx context.Context, handle, state string) (User, error) {
	body := map[string]string{"farcasterProfile": handle}
	if state != "" {
		body["selectedState"] = state
	}
	return gateway.Do[User](ctx, a.C, "/auth", gateway.Options{Method: http.MethodPost, Body: body})
}

func (a Auth) GetUser(ctx context.Context, handle string) (User, error) {
	u, err := gateway.Do[User](ctx, a.C, "/auth", gateway.Options{Query: url.Values{"farcasterProfile": {handle}}})
	if gateway.IsNotFound(err) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

func (a Auth) Me(ctx context.Context) (User, error) {
	return gateway.Do[User](ctx, a.C, "/me", gateway.Options{})
}

type Guides struct{ C *gateway.Client }

func (g Guides) Get(ctx context.Context, state, language string) (Guide, error) {
	return gateway.Do[Guide](ctx, g.C, "/legal-guides", gateway.Options{
		Query: url.Values{"state": {state}, "language": {language}},
	})
}

type GuideInput struct {
	State    string `json:"state"`
	Language string `json:"language"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Script   string `json:"script"`
}

func (g Guides) Create(ctx context.Context, in GuideInput) (Guide, error) {
	return gateway.Do[Guide](ctx, g.C, "/legal-guides", gateway.Options{Method: http.MethodPost, Body: in})
}

type Recordings struct{ C *gateway.Client }

type SaveRecording struct {
	File     io.Reader
	FileName string
	UserID   string
	Location Location
	Notes    string
}

func (r Recordings) Save(ctx context.Context, in SaveRecording) (IncidentRecord, error) {
	fields := map[string]string{
		"userId":    in.UserID,
		"latitude":  strconv.FormatFloat(in.Location.Latitude, 'f', -1, 64),
		"longitude": strconv.FormatFloat(in.Location.Longitude, 'f', -1, 64),
	}
	if in.Location.Address != "" {
		fields["address"] = in.Location.Address
	}
	if in.Notes != "" {
		fields["notes"] = in.Notes
	}
	name := in.FileName
	if name == "" {
		name = "recording.webm"
	}
	return gateway.Do[IncidentRecord](ctx, r.C, "/recordings", gateway.Options{
		Method: http.MethodPost,
		Fields: fields,
		File:   &gateway.File{Field: "file", Name: name, Reader: in.File},
	})
}

func (r Recordings) List(ctx context.Context, userID string, limit, offset int) ([]IncidentRecord, error) {
	return gateway.Do[[]IncidentRecord](ctx, r.C, "/recordings", gateway.Options{Query: page(url.Values{"userId": {userID}}, limit, offset)})
}

func (r Recordings) Delete(ctx context.Context, recordID, userID string) error {
	_, err := gateway.Do[struct{}](ctx, r.C, "/recordings", gateway.Options{
		Method: http.MethodDelete,
		Query:  url.Values{"recordId": {recordID}, "userId": {userID}},
	})
	if gateway.IsNotFound(err) {
		return ErrRecordNotFound
	}
	return err
}

type Alerts struct{ C *gateway.Client }

type SendAlert struct {
	UserID           string   `json:"userId"`
	IncidentRecordID string   `json:"incidentRecordId,omitempty"`
	Recipients       []string `json:"recipients"`
	AlertType        string   `json:"alertType,omitempty"`
	Language         string   `json:"language,omitempty"`
	Location         string   `json:"location,omitempty"`
	CustomMessage    string   `json:"customMessage,omitempty"`
}

func (a Alerts) Send(ctx context.Context, in SendAlert) (SendAlertResult, error) {
	return gateway.Do[SendAlertResult](ctx, a.C, "/alerts", gateway.Options{Method: http.MethodPost, Body: in})
}

func (a Alerts) List(ctx context.Context, userID, incidentID string, limit, offset int) ([]AlertLog, error) {
	q := url.Values{"userId": {userID}}
	if incidentID != "" {
		q.Set("incidentRecordId", incidentID)
	}
	return gateway.Do[[]AlertLog](ctx, a.C, "/alerts", gateway.Options{Query: page(q, limit, offset)})
}

func (a Alerts) UpdateStatus(ctx context.Context, alertID, status string) (AlertLog, error) {
	return gateway.Do[AlertLog](ctx, a.C, "/alerts", gateway.Options{
		Method: http.MethodPatch,
		Body:   map[string]string{"alertId": alertID, "status": status},
	})
}

type Payments struct{ C *gateway.Client }

func (p Payments) Purchase(ctx context.Context, userID, featureKey, txHash string, amount float64) (PurchaseResult, error) {
	return gateway.Do[PurchaseResult](ctx, p.C, "/payments", gateway.Options{
		Method: http.MethodPost,
		Body: map[string]any{
			"userId":     userID,
			"featureKey": featureKey,
			"txHash":     txHash,
			"amount":     amount,
		},
	})
}

func (p Payments) Entitlements(ctx context.Context, userID string) (Entitlements, error) {
	return gateway.Do[Entitlements](ctx, p.C, "/payments", gateway.Options{Query: url.Values{"userId": {userID}}})
}

func (p Payments) ValidateAccess(ctx context.Context, userID, featureKey string) (Access, error) {
	return gateway.Do[Access](ctx, p.C, "/payments", gateway.Options{
		Method: http.MethodPatch,
		Body:   map[string]string{"userId": userID, "featureKey": featureKey},
	})
}

func page(q url.Values, limit, offset int) url.Values {
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	return q
}
