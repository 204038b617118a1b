package httpx

import (
	"bufio"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/EazyNick/Kubernetes-Docker-Server/internal/domain"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/repository"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/service/admin"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/service/alert"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/service/auth"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/service/event"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/service/logs"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/service/monitor"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/service/stats"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/ws"
)

// Router wires HTTP endpoints to services.
type Router struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	auth     auth.Service
	admin    admin.Service
	monitor  monitor.Service
	alerts   alert.Service
	events   event.Service
	logs     logs.Service
	stats    stats.Service
	hub      *ws.Hub
	upgrader websocket.Upgrader
	limiter  RateLimiter

	agentToken string
	dbHealth   func(context.Context) error

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	rateLimitHits      *prometheus.CounterVec
}

const (
	rateWindowDefault  = time.Minute
	rateWindowRealtime = 30 * time.Second
	rateLimitLogin     = 12
	rateLimitUserWrite = 60
	rateLimitUserRead  = 120
	rateLimitWebsocket = 30
	rateLimitAgent     = 600
	healthCheckTimeout = 2 * time.Second
)

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, authSvc auth.Service, adminSvc admin.Service, monitorSvc monitor.Service, alertSvc alert.Service, eventSvc event.Service, logSvc logs.Service, statsSvc stats.Service, hub *ws.Hub, limiter RateLimiter, agentToken string, dbHealth func(context.Context) error) *Router {
	r := &Router{
		mux:     http.NewServeMux(),
		logger:  logger,
		auth:    authSvc,
		admin:   adminSvc,
		monitor: monitorSvc,
		alerts:  alertSvc,
		events:  eventSvc,
		logs:    logSvc,
		stats:   statsSvc,
		hub:     hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		limiter:    limiter,
		agentToken: strings.TrimSpace(agentToken),
		dbHealth:   dbHealth,
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register() {
	r.mux.HandleFunc("/healthz", r.audit("/healthz", r.handleHealthz))
	r.mux.Handle("/metrics", promhttp.Handler())

	r.mux.HandleFunc("/api/auth/login", r.audit("/api/auth/login", r.withRateLimit("/api/auth/login", rateLimitLogin, rateWindowDefault, rateLimitKeyIP, r.handleLogin)))
	r.mux.HandleFunc("/api/auth/logout", r.audit("/api/auth/logout", r.withRateLimit("/api/auth/logout", rateLimitUserWrite, rateWindowDefault, rateLimitKeyIP, r.handleLogout)))
	r.mux.HandleFunc("/api/auth/me", r.audit("/api/auth/me", r.handlerAuthRate("/api/auth/me", rateLimitUserRead, rateWindowDefault, r.handleMe)))

	r.mux.HandleFunc("/api/admin/stats", r.audit("/api/admin/stats", r.handlerAdminRate("/api/admin/stats", rateLimitUserRead, rateWindowDefault, r.handleAdminStats)))
	r.mux.HandleFunc("/api/admin/users", r.audit("/api/admin/users", r.handlerAdminRate("/api/admin/users", rateLimitUserWrite, rateWindowDefault, r.handleAdminUsers)))
	r.mux.HandleFunc("/api/admin/users/", r.audit("/api/admin/users/{id}", r.handlerAdminRate("/api/admin/users/{id}", rateLimitUserWrite, rateWindowDefault, r.handleAdminUserByID)))

	r.mux.HandleFunc("/api/containers", r.audit("/api/containers", r.handlerAuthRate("/api/containers", rateLimitUserRead, rateWindowDefault, r.handleContainers)))
	r.mux.HandleFunc("/api/containers/", r.audit("/api/containers/{id}", r.handlerAuthRate("/api/containers/{id}", rateLimitUserRead, rateWindowDefault, r.handleContainerByID)))
	r.mux.HandleFunc("/api/nodes", r.audit("/api/nodes", r.handlerAuthRate("/api/nodes", rateLimitUserRead, rateWindowDefault, r.handleNodes)))
	r.mux.HandleFunc("/api/nodes/", r.audit("/api/nodes/{name}", r.handleNodeSubroutes))

	r.mux.HandleFunc("/api/alerts", r.audit("/api/alerts", r.handleAlerts))
	r.mux.HandleFunc("/api/alerts/", r.audit("/api/alerts/{id}", r.handleAlertSubroutes))
	r.mux.HandleFunc("/api/events", r.audit("/api/events", r.handleEvents))
	r.mux.HandleFunc("/api/events/", r.audit("/api/events/{id}", r.handlerAuthRate("/api/events/{id}", rateLimitUserRead, rateWindowDefault, r.handleEventByID)))
	r.mux.HandleFunc("/api/logs", r.audit("/api/logs", r.handleLogs))
	r.mux.HandleFunc("/api/logs/stats", r.audit("/api/logs/stats", r.handlerAuthRate("/api/logs/stats", rateLimitUserRead, rateWindowDefault, r.handleLogStats)))
	r.mux.HandleFunc("/api/logs/", r.audit("/api/logs/{id}", r.handlerAuthRate("/api/logs/{id}", rateLimitUserRead, rateWindowDefault, r.handleLogByID)))

	r.mux.HandleFunc("/api/stats/overview", r.audit("/api/stats/overview", r.handlerAuthRate("/api/stats/overview", rateLimitUserRead, rateWindowDefault, r.handleOverview)))
	r.mux.HandleFunc("/api/stats/dashboard", r.audit("/api/stats/dashboard", r.handlerAuthRate("/api/stats/dashboard", rateLimitUserRead, rateWindowDefault, r.handleDashboard)))
	r.mux.HandleFunc("/api/monitoring/", r.audit("/api/monitoring/{chart}", r.handleMonitoring))

	r.mux.HandleFunc("/ws/events", r.audit("/ws/events", r.handlerAuthRate("/ws/events", rateLimitWebsocket, rateWindowRealtime, r.handleStreamWS(event.StreamChannel))))
	r.mux.HandleFunc("/ws/logs", r.audit("/ws/logs", r.handlerAuthRate("/ws/logs", rateLimitWebsocket, rateWindowRealtime, r.handleStreamWS(logs.StreamChannel))))
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Username   string `json:"username"`
		Password   string `json:"password"`
		RememberMe bool   `json:"remember_me"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid JSON body")
		return
	}
	payload.Username = strings.TrimSpace(payload.Username)
	if payload.Username == "" || payload.Password == "" {
		writeError(w, http.StatusBadRequest, codeValidation, "username and password are required")
		return
	}
	result, err := r.auth.Login(req.Context(), payload.Username, payload.Password, payload.RememberMe, clientIP(req))
	if err != nil {
		r.serviceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"access_token": result.Token,
		"token_type":   "bearer",
		"expires_in":   result.ExpiresIn,
		"expires_at":   result.ExpiresAt.UTC().Format(time.RFC3339),
		"user": map[string]any{
			"id":       result.UserID,
			"username": result.Username,
		},
	}, "login successful")
}

func (r *Router) handleLogout(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	// Logout never fails: absent, malformed and already-deleted tokens all
	// land on the same success envelope.
	if token, err := bearerToken(req.Header.Get("Authorization")); err == nil {
		r.auth.Logout(req.Context(), token)
	}
	writeSuccess(w, http.StatusOK, nil, "logged out")
}

func (r *Router) handleMe(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	identity, ok := identityFromContext(req.Context())
	if !ok {
		r.logger.Error("auth context missing for me endpoint", "path", req.URL.Path)
		writeError(w, http.StatusInternalServerError, codeInternal, "authorization context missing")
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"id":        identity.UserID,
		"username":  identity.Username,
		"email":     identity.Email,
		"full_name": identity.FullName,
		"role":      identity.Role,
	}, "")
}

func (r *Router) handleAdminStats(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	adminStats, err := r.admin.Stats(req.Context())
	if err != nil {
		r.serviceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, adminStats, "")
}

func (r *Router) handleAdminUsers(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		page, _ := strconv.Atoi(req.URL.Query().Get("page"))
		perPage, _ := strconv.Atoi(req.URL.Query().Get("per_page"))
		search := strings.TrimSpace(req.URL.Query().Get("search"))
		userPage, err := r.admin.ListUsers(req.Context(), search, page, perPage)
		if err != nil {
			r.serviceError(w, err)
			return
		}
		users := make([]map[string]any, 0, len(userPage.Users))
		for _, u := range userPage.Users {
			users = append(users, userSummaryPayload(u))
		}
		writeSuccess(w, http.StatusOK, map[string]any{
			"users": users,
			"pagination": map[string]int{
				"page":        userPage.Page,
				"per_page":    userPage.PerPage,
				"total":       userPage.Total,
				"total_pages": userPage.TotalPages,
			},
		}, "")
	case http.MethodPost:
		var payload struct {
			Username string `json:"username"`
			FullName string `json:"full_name"`
			Email    string `json:"email"`
			Password string `json:"password"`
			Role     string `json:"role"`
			Status   string `json:"status"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, codeValidation, "invalid JSON body")
			return
		}
		user, err := r.admin.CreateUser(req.Context(), admin.CreateInput{
			Username: payload.Username,
			FullName: payload.FullName,
			Email:    payload.Email,
			Password: payload.Password,
			Role:     domain.Role(payload.Role),
			Status:   domain.AccountStatus(payload.Status),
		})
		if err != nil {
			r.serviceError(w, err)
			return
		}
		writeSuccess(w, http.StatusCreated, userPayload(user), "user created")
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleAdminUserByID(w http.ResponseWriter, req *http.Request) {
	idText := strings.TrimPrefix(req.URL.Path, "/api/admin/users/")
	if idText == "" || strings.Contains(idText, "/") {
		r.notFound(w)
		return
	}
	id, err := strconv.ParseInt(idText, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid user id")
		return
	}
	switch req.Method {
	case http.MethodGet:
		summary, err := r.admin.GetUser(req.Context(), id)
		if err != nil {
			r.serviceError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, userSummaryPayload(*summary), "")
	case http.MethodPut:
		var payload struct {
			Username *string `json:"username"`
			FullName *string `json:"full_name"`
			Email    *string `json:"email"`
			Role     *string `json:"role"`
			Status   *string `json:"status"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, codeValidation, "invalid JSON body")
			return
		}
		user, err := r.admin.UpdateUser(req.Context(), id, admin.UpdateInput{
			Username: payload.Username,
			FullName: payload.FullName,
			Email:    payload.Email,
			Role:     payload.Role,
			Status:   payload.Status,
		})
		if err != nil {
			r.serviceError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, userPayload(user), "user updated")
	case http.MethodDelete:
		if err := r.admin.DeleteUser(req.Context(), id); err != nil {
			r.serviceError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, nil, "user deleted")
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleContainers(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(req.URL.Query().Get("per_page"))
	containers, err := r.monitor.ListContainers(req.Context(), page, perPage)
	if err != nil {
		r.serviceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, containers, "")
}

func (r *Router) handleContainerByID(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	id := strings.TrimPrefix(req.URL.Path, "/api/containers/")
	if id == "" || strings.Contains(id, "/") {
		r.notFound(w)
		return
	}
	container, err := r.monitor.GetContainer(req.Context(), id)
	if err != nil {
		r.serviceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, container, "")
}

func (r *Router) handleNodes(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	nodes, err := r.monitor.ListNodes(req.Context())
	if err != nil {
		r.serviceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"nodes": nodes}, "")
}

func (r *Router) handleNodeSubroutes(w http.ResponseWriter, req *http.Request) {
	name := strings.TrimPrefix(req.URL.Path, "/api/nodes/")
	if name == "" || strings.Contains(name, "/") {
		r.notFound(w)
		return
	}
	if name == "heartbeat" {
		r.withRateLimit("/api/nodes/heartbeat", rateLimitAgent, rateWindowDefault, rateLimitKeyIP, r.handleNodeHeartbeat)(w, req)
		return
	}
	r.handlerAuthRate("/api/nodes/{name}", rateLimitUserRead, rateWindowDefault, func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			r.methodNotAllowed(w)
			return
		}
		node, err := r.monitor.GetNode(req.Context(), name)
		if err != nil {
			r.serviceError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, node, "")
	})(w, req)
}

func (r *Router) handleNodeHeartbeat(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	if !r.verifyAgentToken(w, req) {
		return
	}
	var payload struct {
		Name          string  `json:"name"`
		IP            string  `json:"ip"`
		Role          string  `json:"role"`
		Status        string  `json:"status"`
		CPUCores      int     `json:"cpu_cores"`
		CPUUsage      float64 `json:"cpu_usage"`
		MemoryTotalGB int     `json:"memory_total_gb"`
		MemoryUsage   float64 `json:"memory_usage"`
		DiskTotalGB   int     `json:"disk_total_gb"`
		DiskUsage     float64 `json:"disk_usage"`
		Containers    int     `json:"containers"`
		BootedAt      string  `json:"booted_at"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid JSON body")
		return
	}
	if strings.TrimSpace(payload.Name) == "" {
		writeError(w, http.StatusBadRequest, codeValidation, "name is required")
		return
	}
	node := domain.Node{
		Name:          strings.TrimSpace(payload.Name),
		IP:            payload.IP,
		Role:          payload.Role,
		Status:        payload.Status,
		CPUCores:      payload.CPUCores,
		CPUUsage:      payload.CPUUsage,
		MemoryTotalGB: payload.MemoryTotalGB,
		MemoryUsage:   payload.MemoryUsage,
		DiskTotalGB:   payload.DiskTotalGB,
		DiskUsage:     payload.DiskUsage,
		Containers:    payload.Containers,
	}
	if payload.BootedAt != "" {
		booted, err := time.Parse(time.RFC3339, payload.BootedAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidation, "invalid booted_at format")
			return
		}
		node.BootedAt = booted.UTC()
	}
	if err := r.monitor.RecordHeartbeat(req.Context(), node); err != nil {
		r.serviceError(w, err)
		return
	}
	writeSuccess(w, http.StatusAccepted, nil, "heartbeat recorded")
}

func (r *Router) handleAlerts(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		r.handlerAuthRate("/api/alerts", rateLimitUserRead, rateWindowDefault, func(w http.ResponseWriter, req *http.Request) {
			status := strings.TrimSpace(req.URL.Query().Get("status"))
			limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
			list, err := r.alerts.ListAlerts(req.Context(), status, limit)
			if err != nil {
				r.serviceError(w, err)
				return
			}
			writeSuccess(w, http.StatusOK, list, "")
		})(w, req)
	case http.MethodPost:
		if !r.verifyAgentToken(w, req) {
			return
		}
		var payload struct {
			AlertType string `json:"alert_type"`
			Target    string `json:"target"`
			Message   string `json:"message"`
			Severity  string `json:"severity"`
			Source    string `json:"source"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, codeValidation, "invalid JSON body")
			return
		}
		view, err := r.alerts.Raise(req.Context(), alert.RaiseInput{
			AlertType: payload.AlertType,
			Target:    payload.Target,
			Message:   payload.Message,
			Severity:  payload.Severity,
			Source:    payload.Source,
		})
		if err != nil {
			r.serviceError(w, err)
			return
		}
		writeSuccess(w, http.StatusCreated, view, "alert raised")
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleAlertSubroutes(w http.ResponseWriter, req *http.Request) {
	trimmed := strings.TrimPrefix(req.URL.Path, "/api/alerts/")
	parts := strings.Split(trimmed, "/")
	if len(parts) == 0 || parts[0] == "" {
		r.notFound(w)
		return
	}
	alertID := parts[0]
	if len(parts) == 2 && parts[1] == "resolve" {
		r.handlerAuthRate("/api/alerts/{id}/resolve", rateLimitUserWrite, rateWindowDefault, func(w http.ResponseWriter, req *http.Request) {
			if req.Method != http.MethodPut && req.Method != http.MethodPost {
				r.methodNotAllowed(w)
				return
			}
			if err := r.alerts.Resolve(req.Context(), alertID); err != nil {
				r.serviceError(w, err)
				return
			}
			writeSuccess(w, http.StatusOK, nil, "alert resolved")
		})(w, req)
		return
	}
	if len(parts) > 1 {
		r.notFound(w)
		return
	}
	r.handlerAuthRate("/api/alerts/{id}", rateLimitUserRead, rateWindowDefault, func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			r.methodNotAllowed(w)
			return
		}
		view, err := r.alerts.GetAlert(req.Context(), alertID)
		if err != nil {
			r.serviceError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, view, "")
	})(w, req)
}

func (r *Router) handleEvents(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		r.handlerAuthRate("/api/events", rateLimitUserRead, rateWindowDefault, func(w http.ResponseWriter, req *http.Request) {
			namespace := strings.TrimSpace(req.URL.Query().Get("namespace"))
			limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
			list, err := r.events.ListEvents(req.Context(), namespace, limit)
			if err != nil {
				r.serviceError(w, err)
				return
			}
			writeSuccess(w, http.StatusOK, list, "")
		})(w, req)
	case http.MethodPost:
		if !r.verifyAgentToken(w, req) {
			return
		}
		var payload struct {
			Type      string `json:"type"`
			Object    string `json:"object"`
			Namespace string `json:"namespace"`
			Reason    string `json:"reason"`
			Message   string `json:"message"`
			Source    string `json:"source"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, codeValidation, "invalid JSON body")
			return
		}
		view, err := r.events.Ingest(req.Context(), domain.Event{
			Type:      payload.Type,
			Object:    payload.Object,
			Namespace: payload.Namespace,
			Reason:    payload.Reason,
			Message:   payload.Message,
			Source:    payload.Source,
		})
		if err != nil {
			r.serviceError(w, err)
			return
		}
		writeSuccess(w, http.StatusCreated, view, "event recorded")
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleEventByID(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	idText := strings.TrimPrefix(req.URL.Path, "/api/events/")
	if namespace, ok := strings.CutPrefix(idText, "namespace/"); ok {
		if namespace == "" || strings.Contains(namespace, "/") {
			r.notFound(w)
			return
		}
		limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
		list, err := r.events.ListEvents(req.Context(), namespace, limit)
		if err != nil {
			r.serviceError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, list, "")
		return
	}
	if idText == "" || strings.Contains(idText, "/") {
		r.notFound(w)
		return
	}
	id, err := strconv.ParseInt(idText, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid event id")
		return
	}
	view, err := r.events.GetEvent(req.Context(), id)
	if err != nil {
		r.serviceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, view, "")
}

func (r *Router) handleLogs(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		r.handlerAuthRate("/api/logs", rateLimitUserRead, rateWindowDefault, func(w http.ResponseWriter, req *http.Request) {
			filter := domain.LogFilter{
				Level:     strings.TrimSpace(req.URL.Query().Get("level")),
				Source:    strings.TrimSpace(req.URL.Query().Get("source")),
				Namespace: strings.TrimSpace(req.URL.Query().Get("namespace")),
				Search:    strings.TrimSpace(req.URL.Query().Get("search")),
			}
			filter.Limit, _ = strconv.Atoi(req.URL.Query().Get("limit"))
			filter.Offset, _ = strconv.Atoi(req.URL.Query().Get("offset"))
			if hours, err := strconv.Atoi(req.URL.Query().Get("hours")); err == nil && hours > 0 {
				filter.Since = time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
			}
			page, err := r.logs.List(req.Context(), filter)
			if err != nil {
				r.serviceError(w, err)
				return
			}
			writeSuccess(w, http.StatusOK, page, "")
		})(w, req)
	case http.MethodPost:
		if !r.verifyAgentToken(w, req) {
			return
		}
		decision := r.limiter.Allow("agent:logs", rateLimitAgent, rateWindowDefault)
		r.applyRateHeaders(w, rateLimitAgent, decision)
		if !decision.allowed {
			r.recordRateLimitHit("/api/logs", "agent")
			writeError(w, http.StatusTooManyRequests, codeRateLimited, "rate limit exceeded")
			return
		}
		var payload struct {
			Level         string `json:"level"`
			Message       string `json:"message"`
			Source        string `json:"source"`
			Namespace     string `json:"namespace"`
			PodName       string `json:"pod_name"`
			ContainerName string `json:"container_name"`
			Timestamp     string `json:"timestamp"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, codeValidation, "invalid JSON body")
			return
		}
		entry := domain.LogEntry{
			Level:         payload.Level,
			Message:       payload.Message,
			Source:        payload.Source,
			Namespace:     payload.Namespace,
			PodName:       payload.PodName,
			ContainerName: payload.ContainerName,
		}
		if payload.Timestamp != "" {
			parsed, err := time.Parse(time.RFC3339Nano, payload.Timestamp)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeValidation, "invalid timestamp format")
				return
			}
			entry.CreatedAt = parsed.UTC()
		}
		stored, err := r.logs.Ingest(req.Context(), entry)
		if err != nil {
			r.serviceError(w, err)
			return
		}
		writeSuccess(w, http.StatusAccepted, map[string]string{"id": stored.ID}, "log queued")
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleLogStats(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	since := time.Now().UTC().Add(-24 * time.Hour)
	if hours, err := strconv.Atoi(req.URL.Query().Get("hours")); err == nil && hours > 0 {
		since = time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	}
	logStats, err := r.logs.Stats(req.Context(), since)
	if err != nil {
		r.serviceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, logStats, "")
}

func (r *Router) handleLogByID(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	id := strings.TrimPrefix(req.URL.Path, "/api/logs/")
	if id == "" || strings.Contains(id, "/") {
		r.notFound(w)
		return
	}
	entry, err := r.logs.Get(req.Context(), id)
	if err != nil {
		r.serviceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, entry, "")
}

func (r *Router) handleOverview(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	overview, err := r.stats.Overview(req.Context())
	if err != nil {
		r.serviceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, overview, "")
}

func (r *Router) handleDashboard(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	dashboard, err := r.stats.Dashboard(req.Context())
	if err != nil {
		r.serviceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, dashboard, "")
}

// chartKinds maps URL slugs onto stored metric kinds.
var chartKinds = map[string]string{
	"network-traffic": domain.MetricNetworkTraffic,
	"disk-io":         domain.MetricDiskIO,
	"response-time":   domain.MetricResponseTime,
	"request-status":  domain.MetricRequestStatus,
}

func (r *Router) handleMonitoring(w http.ResponseWriter, req *http.Request) {
	slug := strings.TrimPrefix(req.URL.Path, "/api/monitoring/")
	if slug == "" || strings.Contains(slug, "/") {
		r.notFound(w)
		return
	}
	kind, ok := chartKinds[slug]
	if !ok {
		r.notFound(w)
		return
	}
	switch req.Method {
	case http.MethodGet:
		r.handlerAuthRate("/api/monitoring/{chart}", rateLimitUserRead, rateWindowDefault, func(w http.ResponseWriter, req *http.Request) {
			window := time.Hour
			if hours, err := strconv.Atoi(req.URL.Query().Get("hours")); err == nil && hours > 0 {
				window = time.Duration(hours) * time.Hour
			}
			chart, err := r.stats.Chart(req.Context(), kind, window)
			if err != nil {
				r.serviceError(w, err)
				return
			}
			writeSuccess(w, http.StatusOK, chart, "")
		})(w, req)
	case http.MethodPost:
		if !r.verifyAgentToken(w, req) {
			return
		}
		var payload struct {
			Target    string  `json:"target"`
			Label     string  `json:"label"`
			Value     float64 `json:"value"`
			Timestamp string  `json:"timestamp"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, codeValidation, "invalid JSON body")
			return
		}
		sample := domain.MetricSample{
			Kind:      kind,
			Target:    payload.Target,
			Label:     payload.Label,
			Value:     payload.Value,
			SampledAt: time.Now().UTC(),
		}
		if payload.Timestamp != "" {
			parsed, err := time.Parse(time.RFC3339Nano, payload.Timestamp)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeValidation, "invalid timestamp format")
				return
			}
			sample.SampledAt = parsed.UTC()
		}
		if err := r.stats.RecordSample(req.Context(), sample); err != nil {
			r.serviceError(w, err)
			return
		}
		writeSuccess(w, http.StatusAccepted, nil, "sample recorded")
	default:
		r.methodNotAllowed(w)
	}
}

// handleStreamWS upgrades the connection and subscribes it to one hub channel.
func (r *Router) handleStreamWS(channel string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if _, ok := identityFromContext(req.Context()); !ok {
			r.logger.Error("auth context missing for websocket", "path", req.URL.Path)
			writeError(w, http.StatusInternalServerError, codeInternal, "authorization context missing")
			return
		}
		if r.hub == nil {
			writeError(w, http.StatusServiceUnavailable, codeInternal, "streaming unavailable")
			return
		}
		conn, err := r.upgrader.Upgrade(w, req, nil)
		if err != nil {
			r.logger.Error("websocket upgrade failed", "error", err)
			return
		}
		client := ws.NewClient(conn, r.logger)
		r.hub.Register(channel, client)
		go func() {
			defer func() {
				r.hub.Unregister(channel, client)
				client.Close()
			}()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					break
				}
			}
		}()
	}
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	components := make(map[string]any)
	status := "ok"
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			status = "degraded"
			components["database"] = map[string]any{
				"status": "down",
				"error":  err.Error(),
			}
		} else {
			components["database"] = map[string]any{"status": "up"}
		}
	}
	payload := map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, payload)
}

// serviceError translates service sentinels into enveloped HTTP errors.
func (r *Router) serviceError(w http.ResponseWriter, err error) {
	switch {
	// ErrAccountDisabled shares the generic credentials body: the distinct
	// sentinel exists for server-side logs and the login audit trail only.
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrAccountDisabled):
		writeError(w, http.StatusUnauthorized, codeInvalidCredentials, "invalid username or password")
	case errors.Is(err, auth.ErrSessionExpired):
		writeError(w, http.StatusUnauthorized, codeSessionExpired, "session expired")
	case auth.Unauthenticated(err):
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "authentication failed")
	case errors.Is(err, auth.ErrForbidden), errors.Is(err, admin.ErrProtectedUser):
		writeError(w, http.StatusForbidden, codeForbidden, err.Error())
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, admin.ErrUserNotFound),
		errors.Is(err, monitor.ErrNotFound),
		errors.Is(err, alert.ErrNotFound),
		errors.Is(err, logs.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "resource not found")
	case errors.Is(err, repository.ErrConflict),
		errors.Is(err, admin.ErrUsernameTaken),
		errors.Is(err, alert.ErrAlreadyResolved):
		writeError(w, http.StatusConflict, codeConflict, err.Error())
	case errors.Is(err, repository.ErrInvalidArgument),
		errors.Is(err, admin.ErrInvalidRole),
		errors.Is(err, admin.ErrInvalidStatus),
		errors.Is(err, admin.ErrMissingRequired),
		errors.Is(err, logs.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
	default:
		r.logger.Error("internal error", "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "internal server error")
	}
}

func (r *Router) audit(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		ctx := recorder.ctx
		if ctx == nil {
			ctx = req.Context()
		}
		duration := time.Since(start)
		r.recordRequestMetrics(req.Method, route, status, duration)
		actor := "anonymous"
		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		if reqID := strings.TrimSpace(req.Header.Get("X-Request-ID")); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}
		if identity, ok := identityFromContext(ctx); ok {
			actor = "user"
			fields = append(fields, "user_id", identity.UserID, "username", identity.Username)
		} else if req.Header.Get("X-Agent-Token") != "" {
			actor = "agent"
		}
		fields = append(fields, "actor", actor)

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	ctx    context.Context
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) SetContext(ctx context.Context) {
	sr.ctx = ctx
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := sr.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacker not supported")
}

func (sr *statusRecorder) Push(target string, opts *http.PushOptions) error {
	if p, ok := sr.ResponseWriter.(http.Pusher); ok {
		return p.Push(target, opts)
	}
	return http.ErrNotSupported
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}

func (r *Router) applyRateHeaders(w http.ResponseWriter, limit int, decision rateDecision) {
	if limit <= 0 {
		return
	}
	remaining := limit - decision.count
	if remaining < 0 {
		remaining = 0
	}
	headers := w.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	if !decision.windowEnd.IsZero() {
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(decision.windowEnd.Unix(), 10))
	}
}

// verifyAgentToken ensures collector ingest requests include the configured
// shared secret.
func (r *Router) verifyAgentToken(w http.ResponseWriter, req *http.Request) bool {
	expected := r.agentToken
	if expected == "" {
		r.logger.Error("agent token not configured", "path", req.URL.Path)
		writeError(w, http.StatusInternalServerError, codeInternal, "agent authentication misconfigured")
		return false
	}
	token := strings.TrimSpace(req.Header.Get("X-Agent-Token"))
	if token == "" {
		token = strings.TrimSpace(req.URL.Query().Get("agent_token"))
	}
	if len(token) != len(expected) || subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
		r.logger.Warn("agent token mismatch", "path", req.URL.Path)
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "invalid agent token")
		return false
	}
	return true
}

func userPayload(u *domain.User) map[string]any {
	payload := map[string]any{
		"id":         u.ID,
		"username":   u.Username,
		"full_name":  u.FullName,
		"email":      u.Email,
		"role":       u.Role,
		"status":     u.Status,
		"created_at": u.CreatedAt.UTC().Format(time.RFC3339),
	}
	if u.LastLogin != nil {
		payload["last_login"] = u.LastLogin.UTC().Format(time.RFC3339)
	}
	return payload
}

func userSummaryPayload(u domain.UserAccountSummary) map[string]any {
	payload := map[string]any{
		"id":                u.UserID,
		"username":          u.Username,
		"email":             u.Email,
		"full_name":         u.FullName,
		"role":              u.Role,
		"status":            u.Status,
		"created_at":        u.CreatedAt.UTC().Format(time.RFC3339),
		"total_logins":      u.TotalLogins,
		"successful_logins": u.SuccessfulLogins,
		"failed_logins":     u.FailedLogins,
		"recent_login":      u.RecentLoginFlag,
	}
	if u.LastLogin != nil {
		payload["last_login"] = u.LastLogin.UTC().Format(time.RFC3339)
	}
	if u.LastLoginAttempt != nil {
		payload["last_login_attempt"] = u.LastLoginAttempt.UTC().Format(time.RFC3339)
	}
	return payload
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, codeValidation, "method not allowed")
}

func (r *Router) notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, codeNotFound, "not found")
}
