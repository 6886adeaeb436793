package controllers

import "github.com/go-chi/chi/v5"

func newTestRouter() *chi.Mux {
	return chi.NewRouter()
}
