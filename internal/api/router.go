package api

import (
	"github.com/gorilla/mux"

	"github.com/tabvault/tabvault/server/internal/api/recovery"
	"github.com/tabvault/tabvault/server/internal/dedup"
	"github.com/tabvault/tabvault/server/internal/engine"
	"github.com/tabvault/tabvault/server/internal/services"
	"github.com/tabvault/tabvault/server/internal/snooze"
	"github.com/tabvault/tabvault/server/internal/store"
	"github.com/tabvault/tabvault/server/internal/windows"
)

// Deps carries the constructed services the router exposes.
type Deps struct {
	Store   store.Store
	Windows *windows.Service
	Engine  *engine.Service
	Snooze  *snooze.Service
	Dedup   *dedup.Service

	// IsHealthy reports aggregate service health; nil means always healthy.
	IsHealthy func() bool
}

// NewRouter creates the HTTP router with all API routes.
func NewRouter(d Deps) *mux.Router {
	router := mux.NewRouter()

	router.Use(recovery.Middleware)

	collectionHandler := NewCollectionHandler(services.NewCollectionService(d.Store), d.Windows)
	folderHandler := NewFolderHandler(services.NewFolderService(d.Store))
	tabHandler := NewTabHandler(services.NewTabService(d.Store))
	taskHandler := NewTaskHandler(services.NewTaskService(d.Store))
	opsHandler := NewOpsHandler(d.Engine, d.Snooze, d.Dedup, d.Windows)
	healthHandler := NewHealthHandler(d.Store, d.IsHealthy)

	// Health endpoints
	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")
	router.HandleFunc("/api/health/db", healthHandler.CheckStoreHealth).Methods("GET")

	// Collection endpoints
	router.HandleFunc("/api/collections", collectionHandler.CreateCollection).Methods("POST")
	router.HandleFunc("/api/collections", collectionHandler.ListCollections).Methods("GET")
	router.HandleFunc("/api/collections/{collectionId}", collectionHandler.GetCollection).Methods("GET")
	router.HandleFunc("/api/collections/{collectionId}", collectionHandler.UpdateCollection).Methods("PUT")
	router.HandleFunc("/api/collections/{collectionId}", collectionHandler.DeleteCollection).Methods("DELETE")

	// Folder endpoints
	router.HandleFunc("/api/collections/{collectionId}/folders", folderHandler.CreateFolder).Methods("POST")
	router.HandleFunc("/api/collections/{collectionId}/folders", folderHandler.ListFolders).Methods("GET")
	router.HandleFunc("/api/folders/{folderId}", folderHandler.GetFolder).Methods("GET")
	router.HandleFunc("/api/folders/{folderId}", folderHandler.UpdateFolder).Methods("PUT")
	router.HandleFunc("/api/folders/{folderId}", folderHandler.DeleteFolder).Methods("DELETE")

	// Tab endpoints
	router.HandleFunc("/api/collections/{collectionId}/tabs", tabHandler.CreateTab).Methods("POST")
	router.HandleFunc("/api/collections/{collectionId}/tabs", tabHandler.ListTabs).Methods("GET")
	router.HandleFunc("/api/tabs/{tabRecordId}", tabHandler.GetTab).Methods("GET")
	router.HandleFunc("/api/tabs/{tabRecordId}", tabHandler.UpdateTab).Methods("PUT")
	router.HandleFunc("/api/tabs/{tabRecordId}", tabHandler.DeleteTab).Methods("DELETE")
	router.HandleFunc("/api/tabs/{tabRecordId}/move", tabHandler.MoveTab).Methods("POST")

	// Task endpoints
	router.HandleFunc("/api/tasks", taskHandler.CreateTask).Methods("POST")
	router.HandleFunc("/api/tasks", taskHandler.ListTasks).Methods("GET")
	router.HandleFunc("/api/tasks/{taskId}", taskHandler.GetTask).Methods("GET")
	router.HandleFunc("/api/tasks/{taskId}", taskHandler.UpdateTask).Methods("PUT")
	router.HandleFunc("/api/tasks/{taskId}", taskHandler.DeleteTask).Methods("DELETE")
	router.HandleFunc("/api/tasks/{taskId}/comments", taskHandler.AddComment).Methods("POST")

	// Orchestration endpoints
	router.HandleFunc("/api/windows/{windowId:[0-9]+}/capture", opsHandler.CaptureWindow).Methods("POST")
	router.HandleFunc("/api/windows/{windowId:[0-9]+}/collection", opsHandler.CollectionForWindow).Methods("GET")
	router.HandleFunc("/api/collections/{collectionId}/restore", opsHandler.RestoreCollection).Methods("POST")
	router.HandleFunc("/api/snooze/tabs", opsHandler.SnoozeTabs).Methods("POST")
	router.HandleFunc("/api/snooze/window", opsHandler.SnoozeWindow).Methods("POST")
	router.HandleFunc("/api/snooze/operations", opsHandler.ExecuteSnoozeOperations).Methods("POST")
	router.HandleFunc("/api/snooze/{snoozeId}/wake", opsHandler.Wake).Methods("POST")
	router.HandleFunc("/api/dedupe", opsHandler.Deduplicate).Methods("POST")

	return router
}
