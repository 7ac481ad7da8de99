package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"formassist-backend/internal/crypto"
	"formassist-backend/internal/gateway"
	"formassist-backend/internal/logging"
	"formassist-backend/internal/models"
	"formassist-backend/internal/store"
)

// SettingsKey is the store key of the persisted settings.
const SettingsKey = "settings"

var (
	ErrSettingsValidation = errors.New("settings validation failed")
	ErrSettingsDecryption = errors.New("stored API key could not be decrypted")
)

// ValidationError carries the message shown next to the options form.
// It matches ErrSettingsValidation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrSettingsValidation }

// Prober runs a connection test against candidate settings.
type Prober interface {
	Probe(ctx context.Context, settings models.Settings) (gateway.ProbeResult, error)
}

// SettingsService reads and writes the endpoint settings. The API key is
// sealed at rest and never returned to callers.
type SettingsService struct {
	store  store.Store
	sealer *crypto.Sealer
	prober Prober
	log    zerolog.Logger
}

func NewSettingsService(s store.Store, sealer *crypto.Sealer, prober Prober, log zerolog.Logger) *SettingsService {
	return &SettingsService{
		store:  s,
		sealer: sealer,
		prober: prober,
		log:    logging.Component(log, "settings"),
	}
}

func (s *SettingsService) loadStored(ctx context.Context) (models.StoredSettings, bool, error) {
	var st models.StoredSettings
	err := store.GetJSON(ctx, s.store, SettingsKey, &st)
	if errors.Is(err, store.ErrNotFound) {
		return models.StoredSettings{}, false, nil
	}
	if err != nil {
		return models.StoredSettings{}, false, fmt.Errorf("failed to load settings: %w", err)
	}
	return st, true, nil
}

// Current returns the settings with the API key opened. Absent settings are
// the zero value (mock mode).
func (s *SettingsService) Current(ctx context.Context) (models.Settings, error) {
	st, _, err := s.loadStored(ctx)
	if err != nil {
		return models.Settings{}, err
	}
	key, err := s.sealer.OpenString(st.APIKeySealed)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to open stored API key")
		return models.Settings{}, fmt.Errorf("%w: %v", ErrSettingsDecryption, err)
	}
	return models.Settings{
		AIEndpoint:  st.AIEndpoint,
		APIKey:      key,
		AIModel:     st.AIModel,
		Temperature: st.Temperature,
		DebugMode:   st.DebugMode,
	}, nil
}

// Get returns the options screen view.
func (s *SettingsService) Get(ctx context.Context) (models.SettingsResponse, error) {
	st, _, err := s.loadStored(ctx)
	if err != nil {
		return models.SettingsResponse{}, err
	}
	return toResponse(st), nil
}

func toResponse(st models.StoredSettings) models.SettingsResponse {
	return models.SettingsResponse{
		AIEndpoint:  st.AIEndpoint,
		HasAPIKey:   st.APIKeySealed != "",
		AIModel:     st.AIModel,
		Temperature: st.Temperature,
		DebugMode:   st.DebugMode,
		MockMode:    st.AIEndpoint == "",
	}
}

// Validate checks the form: the endpoint must be an absolute http(s) URL when
// set and the temperature must lie in [0, 2] when set.
func Validate(req models.SaveSettingsRequest) error {
	if ep := strings.TrimSpace(req.AIEndpoint); ep != "" && !validEndpoint(ep) {
		return &ValidationError{Message: "Please enter a valid URL for the AI endpoint"}
	}
	if t := req.Temperature; t != nil && (*t < models.MinTemperature || *t > models.MaxTemperature) {
		return &ValidationError{Message: "Temperature must be between 0.0 and 2.0"}
	}
	return nil
}

func validEndpoint(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Save validates and writes the whole settings record, then applies the debug flag.
func (s *SettingsService) Save(ctx context.Context, req models.SaveSettingsRequest) (models.SettingsResponse, error) {
	if err := Validate(req); err != nil {
		return models.SettingsResponse{}, err
	}
	prev, _, err := s.loadStored(ctx)
	if err != nil {
		return models.SettingsResponse{}, err
	}

	st := models.StoredSettings{
		AIEndpoint:   strings.TrimSpace(req.AIEndpoint),
		APIKeySealed: prev.APIKeySealed,
		AIModel:      strings.TrimSpace(req.AIModel),
		Temperature:  req.Temperature,
		DebugMode:    req.DebugMode,
	}
	if req.APIKey != nil {
		sealed, err := s.sealer.SealString(strings.TrimSpace(*req.APIKey))
		if err != nil {
			return models.SettingsResponse{}, fmt.Errorf("failed to seal API key: %w", err)
		}
		st.APIKeySealed = sealed
	}

	if err := store.PutJSON(ctx, s.store, SettingsKey, st); err != nil {
		return models.SettingsResponse{}, fmt.Errorf("failed to save settings: %w", err)
	}
	logging.SetDebug(st.DebugMode)
	s.log.Info().Bool("mock_mode", st.AIEndpoint == "").Bool("debug", st.DebugMode).Msg("Settings saved")
	return toResponse(st), nil
}

// Seed writes defaults when nothing is stored yet.
func (s *SettingsService) Seed(ctx context.Context, defaults models.SaveSettingsRequest) error {
	_, found, err := s.loadStored(ctx)
	if err != nil || found {
		return err
	}
	if defaults.AIEndpoint == "" && defaults.APIKey == nil && defaults.AIModel == "" && defaults.Temperature == nil {
		return nil
	}
	_, err = s.Save(ctx, defaults)
	return err
}

// Clear removes all settings, returning to mock mode.
func (s *SettingsService) Clear(ctx context.Context) error {
	if err := s.store.Delete(ctx, SettingsKey); err != nil {
		return fmt.Errorf("failed to clear settings: %w", err)
	}
	logging.SetDebug(false)
	return nil
}

// SyncDebug applies the stored debug flag. A storage failure disables debug output.
func (s *SettingsService) SyncDebug(ctx context.Context) bool {
	st, _, err := s.loadStored(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("Could not read debug flag; debug logging disabled")
		logging.SetDebug(false)
		return false
	}
	logging.SetDebug(st.DebugMode)
	return st.DebugMode
}

// TestConnection probes the candidate settings. A nil APIKey uses the stored key.
func (s *SettingsService) TestConnection(ctx context.Context, req models.SaveSettingsRequest) models.TestConnectionResponse {
	endpoint := strings.TrimSpace(req.AIEndpoint)
	if endpoint == "" {
		return models.TestConnectionResponse{Message: "Please enter an AI endpoint URL first"}
	}
	if !validEndpoint(endpoint) {
		return models.TestConnectionResponse{Message: "Please enter a valid URL"}
	}

	candidate := models.Settings{
		AIEndpoint:  endpoint,
		AIModel:     strings.TrimSpace(req.AIModel),
		Temperature: req.Temperature,
	}
	if req.APIKey != nil {
		candidate.APIKey = strings.TrimSpace(*req.APIKey)
	} else if current, err := s.Current(ctx); err == nil {
		candidate.APIKey = current.APIKey
	}

	s.log.Debug().Str("endpoint", endpoint).Bool("has_api_key", candidate.APIKey != "").Msg("Starting connection test")
	res, err := s.prober.Probe(ctx, candidate)
	if err != nil {
		s.log.Debug().Err(err).Msg("Connection test failed")
		return models.TestConnectionResponse{Message: "Connection failed: " + describeProbeError(err)}
	}

	switch {
	case res.Envelope && res.Recognised:
		return models.TestConnectionResponse{Success: true, Message: "Connection successful! AI endpoint is responding correctly.", Data: res.Data}
	case res.Envelope:
		return models.TestConnectionResponse{Success: true, Message: "Connection established but AI response may be unexpected", Data: res.Data}
	case res.Object:
		return models.TestConnectionResponse{Success: true, Message: "Connection successful! Endpoint responded with data."}
	default:
		return models.TestConnectionResponse{Success: true, Message: "Connection established but received unexpected response format"}
	}
}

func describeProbeError(err error) string {
	var se *gateway.StatusError
	switch {
	case errors.As(err, &se):
		switch {
		case se.Code == http.StatusBadRequest:
			return "Bad request - check your request format"
		case se.Code == http.StatusUnauthorized:
			return "Authentication failed - check your API key"
		case se.Code == http.StatusForbidden:
			return "Access forbidden - check your permissions"
		case se.Code == http.StatusNotFound:
			return "Endpoint not found - check the URL"
		case se.Code >= 500:
			return "Server error - the AI service is having issues"
		default:
			return se.Error()
		}
	case errors.Is(err, gateway.ErrInvalidJSON):
		return "Invalid response format - server did not return valid JSON"
	default:
		return "Network error - check if the endpoint URL is correct and accessible"
	}
}
