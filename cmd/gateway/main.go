package main

import (
	"context"
	"log"
	"net/http"
	"time"

	api "github.com/educode/educode-backend/internal/api/http"
	auth "github.com/educode/educode-backend/internal/auth/middleware"
	"github.com/educode/educode-backend/internal/config"
	"github.com/educode/educode-backend/internal/content"
	"github.com/educode/educode-backend/internal/db"
	"github.com/educode/educode-backend/internal/exam"
	"github.com/educode/educode-backend/internal/grading"
	"github.com/educode/educode-backend/internal/judge"
	"github.com/educode/educode-backend/internal/roster"
	"github.com/educode/educode-backend/internal/storage"
	"github.com/educode/educode-backend/internal/syncx"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	rosterStore := roster.NewStore(dbh)
	contentStore := content.NewSQLStore(dbh)
	progress := exam.NewSQLProgressStore(dbh)
	events := syncx.NewEventRepo(dbh)

	// --- Exam + grading services ---
	selector := exam.NewSelector(contentStore, progress)
	ledger := exam.NewLedger(progress, events)

	judgeClient := judge.NewClient(cfg.JudgeURL,
		time.Duration(cfg.JudgePollIntervalMs)*time.Millisecond,
		time.Duration(cfg.JudgeMaxWaitSec)*time.Second)
	artifacts := grading.NewArtifactCache()
	engine := grading.NewEngine(judgeClient, contentStore, progress, artifacts)

	// --- Auth ---
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret)

	// --- Blob store (profile images) ---
	bs, err := storage.NewFSStore(cfg.BlobBasePath, cfg.BlobPublicBase)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute)) // judge polling can run long

	origins := cfg.CORSOriginsDev
	if cfg.Mode == config.ModeProd {
		origins = cfg.CORSOriginsProd
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Logins issue the JWT everything else requires.
	r.Post("/auth/login", auth.AdminLoginHandler(authSvc, cfg.AdminUser, cfg.AdminPassHash))
	r.Post("/universities/login", api.UniversityLoginHandler(rosterStore, authSvc))
	r.Post("/students/login", api.StudentLoginHandler(rosterStore, authSvc))

	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		// Roster: universities, batches, students.
		pr.Route("/universities", func(ur chi.Router) {
			ur.Post("/", api.InsertUniversityHandler(rosterStore))
			ur.Get("/", api.ListUniversitiesHandler(rosterStore))
			ur.Get("/{uniId}", api.GetUniversityHandler(rosterStore))
			ur.Put("/{uniId}", api.UpdateUniversityHandler(rosterStore))
			ur.Delete("/{uniId}", api.DeleteUniversityHandler(rosterStore))
			ur.Get("/{uniId}/batches", api.BatchesByUniversityHandler(rosterStore))
			ur.Get("/{uniId}/students", api.StudentsByUniversityHandler(rosterStore))
			ur.Post("/students/upload", api.UploadStudentsHandler(rosterStore))
		})

		pr.Route("/batches", func(br chi.Router) {
			br.Post("/", api.AddBatchHandler(rosterStore))
			br.Get("/", api.ListBatchesHandler(rosterStore))
			br.Get("/{batchId}", api.GetBatchHandler(rosterStore))
			br.Put("/{batchId}", api.UpdateBatchHandler(rosterStore))
			br.Delete("/{batchId}", api.DeleteBatchHandler(rosterStore))
			br.Get("/{batchId}/students", api.StudentsByBatchHandler(rosterStore))
			br.Get("/{batchId}/courses", api.CourseMetaByBatchHandler(rosterStore))
		})

		pr.Route("/students", func(sr chi.Router) {
			sr.Post("/", api.InsertStudentHandler(rosterStore))
			sr.Get("/", api.ListStudentsHandler(rosterStore))
			sr.Get("/profile", api.StudentProfileHandler(rosterStore))
			sr.Post("/profile-image", api.UploadProfileImageHandler(bs, rosterStore))
			sr.Post("/questions", api.GetQuestionsHandler(selector))
			sr.Get("/{studentId}", api.GetStudentHandler(rosterStore))
			sr.Put("/{studentId}", api.UpdateStudentHandler(rosterStore))
			sr.Delete("/{studentId}", api.DeleteStudentHandler(rosterStore))
		})

		// Course catalog + content tree.
		pr.Route("/courses", func(cr chi.Router) {
			cr.Post("/", api.InsertCourseMetaHandler(rosterStore))
			cr.Get("/", api.ListCourseMetaHandler(rosterStore))
			cr.Get("/{courseId}", api.GetCourseMetaHandler(rosterStore))
			cr.Put("/{courseId}", api.UpdateCourseMetaHandler(rosterStore))
			cr.Delete("/{courseId}", api.DeleteCourseMetaHandler(rosterStore))

			cr.Route("/{courseId}/content", func(kr chi.Router) {
				kr.Post("/", api.PutCourseContentHandler(contentStore, artifacts))
				kr.Get("/", api.GetCourseContentHandler(contentStore))
				kr.Delete("/", api.DeleteCourseContentHandler(contentStore, artifacts))

				kr.Post("/units", api.PutUnitHandler(contentStore, artifacts))
				kr.Get("/units", api.GetUnitsHandler(contentStore))
				kr.Delete("/units/{unitId}", api.DeleteUnitHandler(contentStore, artifacts))

				kr.Post("/units/{unitId}/sub-units", api.PutSubUnitHandler(contentStore, artifacts))
				kr.Get("/units/{unitId}/sub-units", api.GetSubUnitsHandler(contentStore))
				kr.Delete("/units/{unitId}/sub-units/{subUnitId}", api.DeleteSubUnitHandler(contentStore, artifacts))

				kr.Post("/units/{unitId}/sub-units/{subUnitId}/coding", api.PutCodingQuestionHandler(contentStore, artifacts))
				kr.Delete("/units/{unitId}/sub-units/{subUnitId}/coding/{questionId}", api.DeleteCodingQuestionHandler(contentStore, artifacts))
				kr.Post("/units/{unitId}/sub-units/{subUnitId}/mcq", api.PutMCQQuestionHandler(contentStore))
				kr.Delete("/units/{unitId}/sub-units/{subUnitId}/mcq/{questionId}", api.DeleteMCQQuestionHandler(contentStore))
			})
		})

		// Test flow: run, submit, resume, check.
		pr.Route("/tests", func(tr chi.Router) {
			tr.Post("/practice", api.RunPracticeHandler(engine))
			tr.Post("/final", api.RunFinalHandler(engine))
			tr.Post("/submit", api.SubmitTestResultHandler(ledger))
			tr.Post("/status", api.TestResultStatusHandler(ledger))
			tr.Post("/attempts/save", api.SaveAttemptsHandler(ledger))
			tr.Post("/security-code", api.CheckSecurityCodeHandler(contentStore))
		})

		pr.Post("/admin/cache/invalidate", api.InvalidateArtifactsHandler(artifacts))
	})

	// Uploaded blobs are public reads; PublicURL links point here unless a
	// CDN fronts them via BLOB_PUBLIC_BASE.
	r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.Dir(bs.Root()))))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (mode=%s, db=%s, judge=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver, cfg.JudgeURL)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
