package FiberConfig

import (
	"net/http"
	"time"

	"ShiftAudit/Checklist"
	"ShiftAudit/Controllers"
	"ShiftAudit/Store"
	"ShiftAudit/Templates"
	"ShiftAudit/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/template/html"
	"go.uber.org/zap"
)

// Deps is everything the routes need from main.
type Deps struct {
	Repo         Store.Repository
	Forms        *Checklist.Forms
	Submitter    *Checklist.Submitter
	Secret       []byte
	TokenTTL     time.Duration
	CookieSecure bool
	Log          *zap.Logger
}

func SetupRoutes(app *fiber.App, deps Deps) {
	// Initialize controllers
	authController := Controllers.NewAuthController(deps.Repo, deps.Secret, deps.TokenTTL, deps.CookieSecure, deps.Log)
	catalogController := Controllers.NewCatalogController(deps.Repo, deps.Log)
	formController := Controllers.NewFormController(deps.Repo, deps.Forms, deps.Submitter, deps.Log)
	reportController := Controllers.NewReportController(deps.Repo, deps.Log)

	verify := middleware.Verify(deps.Secret, deps.Repo)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/success", verify, reportController.Success)

	api := app.Group("/api")

	// Auth routes, sign-up and sign-in are public
	auth := api.Group("/auth")
	auth.Post("/signup", authController.SignUp)
	auth.Post("/signin", authController.SignIn)
	auth.Post("/signout", verify, authController.SignOut)
	auth.Get("/me", verify, authController.Me)

	// Work context choices
	api.Get("/areas", verify, catalogController.GetAreas)
	api.Get("/shifts", verify, catalogController.GetShifts)
	api.Get("/areas/:area/lines", verify, catalogController.GetLines)
	api.Get("/lines/:id/operations", verify, catalogController.GetOperations)
	api.Get("/context/next", verify, catalogController.GetNextStep)

	// Checklist sessions
	sessions := api.Group("/sessions", verify)
	sessions.Post("/", formController.StartSession)
	sessions.Get("/:id/form", formController.GetForm)
	sessions.Put("/:id/answers/:questionId", formController.SetAnswer)
	sessions.Post("/:id/submit", formController.Submit)
	sessions.Get("/:id/report", reportController.GetReport)
	sessions.Get("/:id/report/view", reportController.ViewReport)
	sessions.Get("/:id/report/pdf", reportController.DownloadPDF)

	// History, place the fixed paths before anything parameterised
	history := api.Group("/history", verify)
	history.Get("/", reportController.GetHistory)
	history.Get("/export", reportController.ExportHistory)
	history.Get("/needs-review", reportController.GetNeedsReview)
}

// NewApp builds the Fiber app with the embedded views and the shared
// middleware. requestLogger may be nil.
func NewApp(log *zap.Logger, requestLogger fiber.Handler) *fiber.App {
	engine := html.NewFileSystem(http.FS(Templates.FS), ".html")

	app := fiber.New(fiber.Config{
		Views:        engine,
		ErrorHandler: Controllers.ErrorHandler(log),
	})
	if requestLogger != nil {
		app.Use(requestLogger)
	}
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		AllowCredentials: true,
		MaxAge:           300,
	}))
	return app
}

// FiberConfig builds the app, registers the routes and serves on port until
// the listener is shut down.
func FiberConfig(port string, deps Deps, requestLogger fiber.Handler) (*fiber.App, <-chan error) {
	app := NewApp(deps.Log, requestLogger)
	SetupRoutes(app, deps)

	errc := make(chan error, 1)
	go func() {
		deps.Log.Info("server up", zap.String("port", port))
		errc <- app.Listen(":" + port)
	}()
	return app, errc
}
