package main

import (
	"net/http"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (app *application) loginHandler(w http.ResponseWriter, r *http.Request) {
	var input loginRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	err = app.session.Login(r.Context(), input.Email, input.Password)
	if err != nil {
		// The session is shared by every client; the failure belongs to this
		// caller only.
		app.session.ClearError()
		app.contentErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"token": app.session.Token()}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) logoutHandler(w http.ResponseWriter, r *http.Request) {
	app.session.Logout()

	err := app.writeJSON(w, http.StatusOK, envelope{"message": "admin logged out"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) sessionHandler(w http.ResponseWriter, r *http.Request) {
	session := map[string]any{
		"state":         app.session.State().String(),
		"authenticated": app.session.IsAuthenticated(),
		"loading":       app.session.IsLoading(),
	}
	if msg := app.session.Error(); msg != "" {
		session["error"] = msg
	}

	err := app.writeJSON(w, http.StatusOK, envelope{"session": session}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
