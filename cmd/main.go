package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	cancelAppointmentHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/cancel_appointment"
	createAppointmentHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/create_appointment"
	getAppointmentHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_appointment"
	getAppointmentHistoryHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_appointment_history"
	getAppsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_apps"
	getTenantAppointmentsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_tenant_appointments"
	installAppHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/install_app"
	refundPaymentHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/refund_payment"
	rescheduleAppointmentHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/reschedule_appointment"
	updateAppHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/update_app"
	updateAppointmentStatusHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/update_appointment_status"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/config"
	"github.com/m04kA/SMC-AppointmentService/internal/hooks"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/applock"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/events"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	catalogRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/catalog"
	connectedAppRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/connectedapp"
	paymentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/payment"
	tenantConfigRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/tenantconfig"
	customerServiceClient "github.com/m04kA/SMC-AppointmentService/internal/integrations/customerservice"
	notifySenderClient "github.com/m04kA/SMC-AppointmentService/internal/integrations/notifysender"
	stripeClient "github.com/m04kA/SMC-AppointmentService/internal/integrations/stripepayments"
	appointmentsService "github.com/m04kA/SMC-AppointmentService/internal/service/appointments"
	appsService "github.com/m04kA/SMC-AppointmentService/internal/service/apps"
	cancelAppointmentUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/cancel_appointment"
	createAppointmentUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/create_appointment"
	refundPaymentUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/refund_payment"
	rescheduleAppointmentUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/reschedule_appointment"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/simpletxmanager"
	"github.com/m04kA/SMC-AppointmentService/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-AppointmentService...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	var wrappedDB *dbmetrics.DB
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Подключаемся к Redis для распределенных блокировок per-appointment
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Failed to ping redis: %v", err)
	}
	locker := applock.NewLocker(redisClient, time.Duration(cfg.Redis.LockTTL)*time.Second)
	log.Info("Successfully connected to redis (addr=%s)", cfg.Redis.Addr)

	// Инициализируем kafka publisher (если включен).
	// nil publisher безопасен: публикация тихо пропускается
	var publisher *events.Publisher
	if cfg.Kafka.Enabled {
		publisher = events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		defer publisher.Close()
		log.Info("Kafka publisher initialized (brokers=%v, topic=%s)", cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}

	// Инициализируем интеграционных клиентов
	customerClient := customerServiceClient.NewClient(
		cfg.CustomerService.URL,
		time.Duration(cfg.CustomerService.Timeout)*time.Second,
		log,
	)
	notifyClient := notifySenderClient.NewClient(
		time.Duration(cfg.Notifications.Timeout)*time.Second,
		log,
	)
	stripePayments := stripeClient.New(cfg.Stripe.SecretKey, log)
	log.Info("Integration clients initialized (CustomerService=%s timeout=%ds, stripe_enabled=%t)",
		cfg.CustomerService.URL, cfg.CustomerService.Timeout, stripePayments.Enabled())

	// Инициализируем репозитории (с метриками или без)
	var (
		apptRepository   *appointmentRepo.Repository
		ctlgRepository   *catalogRepo.Repository
		appRepository    *connectedAppRepo.Repository
		payRepository    *paymentRepo.Repository
		tenantRepository *tenantConfigRepo.Repository
	)

	// Интерфейс для transaction manager (используется в сервисах и usecases)
	type TxManager interface {
		Do(ctx context.Context, fn func(ctx context.Context) error) error
		DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
		DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
	}
	var txMgr TxManager

	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")

		apptRepository = appointmentRepo.NewRepository(wrappedDB)
		ctlgRepository = catalogRepo.NewRepository(wrappedDB)
		appRepository = connectedAppRepo.NewRepository(wrappedDB)
		payRepository = paymentRepo.NewRepository(wrappedDB)
		tenantRepository = tenantConfigRepo.NewRepository(wrappedDB)
		txMgr = txmanager.NewTransactionManager(wrappedDB)
	} else {
		apptRepository = appointmentRepo.NewRepository(db)
		ctlgRepository = catalogRepo.NewRepository(db)
		appRepository = connectedAppRepo.NewRepository(db)
		payRepository = paymentRepo.NewRepository(db)
		tenantRepository = tenantConfigRepo.NewRepository(db)
		txMgr = simpletxmanager.NewTransactionManager(db)
	}

	// Инициализируем сервисы
	appsSvc := appsService.NewService(appRepository, log)

	var hookMetrics hooks.MetricsRecorder
	if cfg.Metrics.Enabled {
		hookMetrics = metricsCollector
	}
	dispatcher := hooks.NewDispatcher(appsSvc, hookMetrics, log)

	appointmentsSvc := appointmentsService.NewService(
		apptRepository,
		dispatcher,
		notifyClient,
		publisher,
		txMgr,
		&appointmentsService.RealTimeProvider{},
		log,
	)

	// Инициализируем use cases
	createAppointmentUseCase := createAppointmentUC.NewUseCase(
		apptRepository,
		ctlgRepository,
		tenantRepository,
		customerClient,
		dispatcher,
		notifyClient,
		publisher,
		txMgr,
		log,
	)
	cancelAppointmentUseCase := cancelAppointmentUC.NewUseCase(
		apptRepository,
		tenantRepository,
		locker,
		dispatcher,
		notifyClient,
		publisher,
		txMgr,
		log,
	)
	rescheduleAppointmentUseCase := rescheduleAppointmentUC.NewUseCase(
		apptRepository,
		tenantRepository,
		locker,
		dispatcher,
		notifyClient,
		publisher,
		txMgr,
		log,
	)
	refundPaymentUseCase := refundPaymentUC.NewUseCase(
		payRepository,
		apptRepository,
		stripePayments,
		locker,
		publisher,
		txMgr,
		log,
	)

	// Инициализируем handlers
	createAppointment := createAppointmentHandler.NewHandler(createAppointmentUseCase, log)
	getAppointment := getAppointmentHandler.NewHandler(appointmentsSvc, log)
	getAppointmentHistory := getAppointmentHistoryHandler.NewHandler(appointmentsSvc, log)
	getTenantAppointments := getTenantAppointmentsHandler.NewHandler(appointmentsSvc, log)
	updateAppointmentStatus := updateAppointmentStatusHandler.NewHandler(appointmentsSvc, log)
	cancelAppointment := cancelAppointmentHandler.NewHandler(cancelAppointmentUseCase, log)
	rescheduleAppointment := rescheduleAppointmentHandler.NewHandler(rescheduleAppointmentUseCase, log)
	refundPayment := refundPaymentHandler.NewHandler(refundPaymentUseCase, log)
	installApp := installAppHandler.NewHandler(appsSvc, log)
	getApps := getAppsHandler.NewHandler(appsSvc, log)
	updateApp := updateAppHandler.NewHandler(appsSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		log.Info("HTTP metrics middleware enabled")
	}

	// Metrics endpoint (публичный, без аутентификации)
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// Все маршруты тенантские и требуют X-Tenant-ID header
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Записи ---
	// Создание записи
	protected.HandleFunc("/appointments", createAppointment.Handle).Methods(http.MethodPost)

	// Список записей тенанта с фильтрацией
	protected.HandleFunc("/appointments", getTenantAppointments.Handle).Methods(http.MethodGet)

	// Получение записи по ID
	protected.HandleFunc("/appointments/{appointmentId}", getAppointment.Handle).Methods(http.MethodGet)

	// Журнал событий записи
	protected.HandleFunc("/appointments/{appointmentId}/history", getAppointmentHistory.Handle).Methods(http.MethodGet)

	// Подтверждение или отклонение записи
	protected.HandleFunc("/appointments/{appointmentId}/status", updateAppointmentStatus.Handle).Methods(http.MethodPatch)

	// Отмена записи
	protected.HandleFunc("/appointments/{appointmentId}/cancel", cancelAppointment.Handle).Methods(http.MethodPatch)

	// Перенос записи
	protected.HandleFunc("/appointments/{appointmentId}/reschedule", rescheduleAppointment.Handle).Methods(http.MethodPost)

	// --- Платежи ---
	// Возврат по платежу
	protected.HandleFunc("/appointments/{appointmentId}/payments/{paymentId}/refunds",
		refundPayment.Handle).Methods(http.MethodPost)

	// --- Подключенные приложения ---
	// Установка приложения из каталога
	protected.HandleFunc("/apps", installApp.Handle).Methods(http.MethodPost)

	// Список приложений тенанта
	protected.HandleFunc("/apps", getApps.Handle).Methods(http.MethodGet)

	// Обновление приложения
	protected.HandleFunc("/apps/{appId}", updateApp.Handle).Methods(http.MethodPatch)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем сбор метрик connection pool
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
