package main

import (
	"net/http"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"quadro-kanban/handlers"
	"quadro-kanban/utilities"
)

// NewRouter monta as rotas e aplica logging e CORS
func NewRouter(s *handlers.Server, allowedOrigins []string) http.Handler {
	r := mux.NewRouter()

	// Aplicar o middleware de logging global em todas as rotas
	r.Use(handlers.LoggingMiddleware)

	// --- Rotas de Autenticação ---
	r.HandleFunc("/auth/finalize-login", s.FinalizeFirebaseLoginHandler).Methods("POST")
	r.HandleFunc("/auth/logout", s.AuthMiddleware(s.LogoutHandler)).Methods("POST")

	// --- Rotas de Usuário (referindo-se ao próprio usuário logado) ---
	r.HandleFunc("/user/info", s.AuthMiddleware(s.UserHandler)).Methods("GET")
	r.HandleFunc("/user/update", s.AuthMiddleware(s.UpdateUserHandler)).Methods("PUT")

	// --- Rotas de Quadros ---
	r.HandleFunc("/boards/list", s.AuthMiddleware(s.ListBoardsHandler)).Methods("GET")
	r.HandleFunc("/board/create", s.AuthMiddleware(s.CreateBoardHandler)).Methods("POST")
	r.HandleFunc("/board/delete/{board_id}", s.AuthMiddleware(s.DeleteBoardHandler)).Methods("DELETE")
	r.HandleFunc("/board/{board_id}/view/open", s.AuthMiddleware(s.OpenBoardHandler)).Methods("POST")
	r.HandleFunc("/board/{board_id}/view/close", s.AuthMiddleware(s.CloseBoardHandler)).Methods("DELETE")

	// --- Rotas de Tarefas (aninhadas sob o quadro) ---
	r.HandleFunc("/board/{board_id}/task/list", s.AuthMiddleware(s.ListTasksHandler)).Methods("GET")
	r.HandleFunc("/board/{board_id}/task/refresh", s.AuthMiddleware(s.RefreshTasksHandler)).Methods("POST")
	r.HandleFunc("/board/{board_id}/task/create", s.AuthMiddleware(s.CreateTaskHandler)).Methods("POST")
	r.HandleFunc("/board/{board_id}/task/info/{task_id}", s.AuthMiddleware(s.GetTaskHandler)).Methods("GET")
	r.HandleFunc("/board/{board_id}/task/update/{task_id}", s.AuthMiddleware(s.UpdateTaskHandler)).Methods("PUT")
	r.HandleFunc("/board/{board_id}/task/delete/{task_id}", s.AuthMiddleware(s.DeleteTaskHandler)).Methods("DELETE")

	// --- Rotas de Drag and Drop ---
	r.HandleFunc("/board/{board_id}/drag/start", s.AuthMiddleware(s.DragStartHandler)).Methods("POST")
	r.HandleFunc("/board/{board_id}/drag/move", s.AuthMiddleware(s.DragMoveHandler)).Methods("POST")
	r.HandleFunc("/board/{board_id}/drag/end", s.AuthMiddleware(s.DragEndHandler)).Methods("POST")
	r.HandleFunc("/board/{board_id}/drag/cancel", s.AuthMiddleware(s.DragCancelHandler)).Methods("POST")

	// Configuração do CORS
	headers := gorillahandlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type", "Authorization"})
	methods := gorillahandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
		utilities.LogInfo("CORS_ALLOWED_ORIGINS não definida, permitindo todas as origens ('*'). Defina para maior segurança em produção.")
	}
	origins := gorillahandlers.AllowedOrigins(allowedOrigins)
	utilities.LogInfo("Configurando CORS com origens permitidas: %v", allowedOrigins)

	return gorillahandlers.CORS(headers, methods, origins)(r)
}
