package internal

import (
	"net/http"
	"predictor/internal/controllers"
	"predictor/internal/providers"
)

func InitRoutes(prediction *controllers.PredictionController, contact *controllers.ContactController, account *controllers.AccountController, export *controllers.ExportController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Post("/leads", http.HandlerFunc(account.CreateLead))
	routers.Post("/session/login", http.HandlerFunc(account.Login))
	routers.Post("/session/logout", http.HandlerFunc(account.Logout))

	routers.Post("/predictions/rank", http.HandlerFunc(prediction.PredictByRank))
	routers.Post("/predictions/college", http.HandlerFunc(prediction.PredictByCollege))
	routers.Get("/predictions/current", http.HandlerFunc(prediction.Current))
	routers.Get("/predictions/page", http.HandlerFunc(prediction.ChangePage))
	routers.Post("/predictions/filters", http.HandlerFunc(prediction.ApplyFilters))
	routers.Post("/predictions/view-all", http.HandlerFunc(prediction.ViewAll))
	routers.Post("/predictions/retry", http.HandlerFunc(prediction.Retry))

	routers.Get("/contact/status", http.HandlerFunc(contact.Status))
	routers.Post("/contact", http.HandlerFunc(contact.Submit))
	routers.Post("/contact/cancel", http.HandlerFunc(contact.Cancel))
	routers.Post("/contact/clear", http.HandlerFunc(contact.Clear))

	routers.Get("/export", http.HandlerFunc(export.Export))
	return routers
}
