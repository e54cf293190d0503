package routes

import (
	"net/http"

	"github.com/shashiranjanraj/stockroom/app/controllers"
	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/app/repositories"
	"github.com/shashiranjanraj/stockroom/app/services"
	"github.com/shashiranjanraj/stockroom/pkg/auth"
	"github.com/shashiranjanraj/stockroom/pkg/ctx"
	"github.com/shashiranjanraj/stockroom/pkg/middleware"
	"github.com/shashiranjanraj/stockroom/pkg/rbac"
	"github.com/shashiranjanraj/stockroom/pkg/router"
)

// Queue is what the API needs from the job queue.
type Queue interface {
	services.Enqueuer
	controllers.FailedJobs
}

// Deps are the handles the API routes are built over.
type Deps struct {
	Store  *repositories.Store
	Tokens *auth.Manager
	Queue  Queue

	// GraphQL serves /api/graphql when set.
	GraphQL http.Handler
}

func RegisterAPI(r *router.Router, d Deps) {
	authController := controllers.NewAuthController(services.NewAuthService(d.Store, d.Tokens))
	jobController := controllers.NewJobController(d.Store, services.NewJobService(d.Queue))
	failedJobController := controllers.NewFailedJobController(d.Queue)

	api := r.Group("/api")
	api.Post("/register", "auth.register", ctx.Wrap(authController.Register))
	api.Post("/login", "auth.login", ctx.Wrap(authController.Login))

	protected := api.Group("", middleware.Auth(d.Tokens))
	protected.Get("/profile", "auth.profile", ctx.Wrap(authController.Profile))

	protected.Resource("/suppliers", "suppliers", resource(controllers.NewSupplierController(d.Store)))
	protected.Resource("/products", "products", resource(controllers.NewProductController(d.Store)))
	protected.Resource("/inventory", "inventory", resource(controllers.NewInventoryController(d.Store)))

	protected.Post("/upload-csv", "jobs.upload_csv", ctx.Wrap(jobController.UploadCSV))
	protected.Post("/generate-report", "jobs.generate_report", ctx.Wrap(jobController.GenerateReport))

	if d.GraphQL != nil {
		protected.Post("/graphql", "graphql", d.GraphQL.ServeHTTP)
	}

	admin := protected.Group("/admin", rbac.HasRole(models.RoleAdmin))
	admin.Get("/failed-jobs", "admin.failed_jobs.index", ctx.Wrap(failedJobController.Index))
	admin.Post("/failed-jobs/{id}/retry", "admin.failed_jobs.retry", ctx.Wrap(failedJobController.Retry))
}

// crud is a controller with the five REST actions.
type crud interface {
	Index(c *ctx.Context)
	Store(c *ctx.Context)
	Show(c *ctx.Context)
	Update(c *ctx.Context)
	Destroy(c *ctx.Context)
}

type wrapped struct{ c crud }

func resource(c crud) router.ResourceController { return wrapped{c} }

func (w wrapped) Index(rw http.ResponseWriter, r *http.Request)   { ctx.Wrap(w.c.Index)(rw, r) }
func (w wrapped) Store(rw http.ResponseWriter, r *http.Request)   { ctx.Wrap(w.c.Store)(rw, r) }
func (w wrapped) Show(rw http.ResponseWriter, r *http.Request)    { ctx.Wrap(w.c.Show)(rw, r) }
func (w wrapped) Update(rw http.ResponseWriter, r *http.Request)  { ctx.Wrap(w.c.Update)(rw, r) }
func (w wrapped) Destroy(rw http.ResponseWriter, r *http.Request) { ctx.Wrap(w.c.Destroy)(rw, r) }
