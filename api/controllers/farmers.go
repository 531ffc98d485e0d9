package controllers

import (
	"net/http"

	"github.com/farmstandhq/farmstand-backend/api/responses"
	"github.com/farmstandhq/farmstand-backend/api/validators"
	farmersvc "github.com/farmstandhq/farmstand-backend/internal/farmers"
	pkgerrors "github.com/farmstandhq/farmstand-backend/pkg/errors"
	"github.com/farmstandhq/farmstand-backend/pkg/logger"
)

type farmerProfilePayload struct {
	FarmName    string  `json:"farmName" validate:"required,max=200"`
	Phone       *string `json:"phone"`
	Location    *string `json:"location"`
	Description *string `json:"description"`
	ImageURL    *string `json:"imageUrl"`
}

// FarmerList returns the public farmer directory.
func FarmerList(svc farmersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "farmer service unavailable"))
			return
		}

		farmers, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, farmers)
	}
}

// FarmerGet returns one public farmer profile.
func FarmerGet(svc farmersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "farmer service unavailable"))
			return
		}

		farmerID, err := pathUUID(r, "farmerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		farmer, err := svc.Get(r.Context(), farmerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, farmer)
	}
}

// FarmerMe returns the caller's own farm profile.
func FarmerMe(svc farmersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "farmer service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		farmer, err := svc.GetOwn(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, farmer)
	}
}

// FarmerUpdateMe edits the caller's own farm profile.
func FarmerUpdateMe(svc farmersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "farmer service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload farmerProfilePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		farmer, err := svc.UpdateProfile(r.Context(), userID, farmersvc.ProfileInput{
			FarmName:    payload.FarmName,
			Phone:       payload.Phone,
			Location:    payload.Location,
			Description: payload.Description,
			ImageURL:    payload.ImageURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, farmer)
	}
}
