package responses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	pkgerrors "github.com/sorbetero/sorbetero-backend/pkg/errors"
	"github.com/sorbetero/sorbetero-backend/pkg/logger"
	"github.com/sorbetero/sorbetero-backend/pkg/types"
)

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.SuccessEnvelope{Success: true, Data: data})
}

// WriteError maps a coded error onto the public error payload. Limit
// rejections carry current_count, limit, and upgrade_required at the top
// level of the envelope; those keys are lifted out of the error details.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	meta := pkgerrors.MetadataFor(typed.Code())

	msg := meta.PublicMessage
	switch typed.Code() {
	case pkgerrors.CodeValidation,
		pkgerrors.CodeForbidden,
		pkgerrors.CodeUnauthorized,
		pkgerrors.CodeNotFound,
		pkgerrors.CodeConflict,
		pkgerrors.CodeLimitExceeded:
		if m := typed.Message(); m != "" {
			msg = m
		}
	}

	payload := types.ErrorEnvelope{
		Error:   string(typed.Code()),
		Message: msg,
	}

	if meta.DetailsAllowed {
		payload.Details = liftLimitFields(&payload, typed.Details())
	}

	if logg != nil {
		dump := pkgerrors.Dump(err)

		fields := map[string]any{
			"error":       dump.TopMessage,
			"error_code":  dump.Code,
			"error_chain": dump.Chain,
		}
		if dump.SQLErrno != 0 {
			fields["sql_errno"] = dump.SQLErrno
			fields["sql_state"] = dump.SQLState
			fields["sql_message"] = dump.SQLMessage
		}

		ctx = logg.WithFields(ctx, fields)
		logg.Error(ctx, "request.error", err)
	}

	writeJSON(w, meta.HTTPStatus, payload)
}

// liftLimitFields promotes the limit-payload keys into the envelope and
// returns whatever details remain.
func liftLimitFields(payload *types.ErrorEnvelope, details any) any {
	dm, ok := details.(map[string]any)
	if !ok {
		return details
	}

	rest := map[string]any{}
	for key, value := range dm {
		switch key {
		case "current_count":
			if n, ok := asInt(value); ok {
				payload.CurrentCount = &n
				continue
			}
		case "limit":
			if n, ok := asInt(value); ok {
				payload.Limit = &n
				continue
			}
		case "upgrade_required":
			if b, ok := value.(bool); ok {
				payload.UpgradeRequired = b
				continue
			}
		}
		rest[key] = value
	}

	if len(rest) == 0 {
		return nil
	}
	return rest
}

func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}
