package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/captcha"
	checkoutsvc "github.com/angelmondragon/storefront-backend/internal/checkout"
	pkgcheckout "github.com/angelmondragon/storefront-backend/pkg/checkout"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type checkoutRequest struct {
	Email        string                    `json:"email" validate:"required,email,max=254"`
	Destination  string                    `json:"destination" validate:"required"`
	Website      string                    `json:"website"`
	CaptchaToken string                    `json:"captcha_token"`
	Items        []pkgcheckout.ItemRequest `json:"items" validate:"dive"`
}

// Checkout revalidates the submitted cart and opens a payment session for it.
func Checkout(svc checkoutsvc.Service, verifier captcha.Verifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		if verifier == nil {
			verifier = captcha.Noop{}
		}

		r.Body = http.MaxBytesReader(w, r.Body, middleware.MaxCheckoutBodyBytes)
		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		// bots fill every field; people never see this one
		if strings.TrimSpace(payload.Website) != "" {
			if logg != nil {
				logg.Warn(logg.WithField(ctx, "ip", middleware.ClientIP(r)), "checkout.honeypot_triggered")
			}
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid submission"))
			return
		}

		destination, err := enums.ParseDestination(payload.Destination)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported destination").
				WithDetails(map[string]string{"destination": "must be one of GB EU WORLD"}))
			return
		}

		if err := verifier.Verify(ctx, validators.SanitizeString(payload.CaptchaToken, 2048), middleware.ClientIP(r)); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Execute(ctx, checkoutsvc.Request{
			Email:       validators.SanitizeString(payload.Email, 254),
			Destination: destination,
			Items:       payload.Items,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
