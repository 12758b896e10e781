package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"
	"github.com/tutorahq/tutora/pkg/config"
	"github.com/tutorahq/tutora/pkg/database"
	"github.com/tutorahq/tutora/pkg/mailer"
	"github.com/tutorahq/tutora/pkg/migrations"
	"github.com/tutorahq/tutora/pkg/payments"
	"github.com/tutorahq/tutora/pkg/server"
	"github.com/tutorahq/tutora/pkg/version"
	"github.com/tutorahq/tutora/pkg/worker"
)

func main() {
	ctx := context.Background()
	log := logger.New()

	log.Info("starting tutora", logger.Data{"version": version.Version})

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	if err := initUploadDir(cfg.UploadDir); err != nil {
		log.Err(err).Fatal("upload directory error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}

	group, err := migrations.BringUpToDate(ctx, db)
	if err != nil {
		log.Err(err).Fatal("migrations error")
	}
	if group.ID == 0 {
		log.Info("no new migrations to run")
	} else {
		log.Info("migrated to new group", logger.Data{"group_id": group.ID, "migration_names": group.Migrations.String()})
	}

	provider := payments.NewResilientProvider(
		payments.NewRESTProvider(cfg.PaymentProviderURL, cfg.PaymentAPIKey, cfg.PaymentTimeout),
	)
	paymentService := payments.NewService(db, provider)
	mail := mailer.New(cfg)

	wrkr := worker.New(cfg, db, paymentService, mail)
	scheduler := worker.NewScheduler(cfg, db)

	srv, err := server.New(cfg, db)
	if err != nil {
		log.Err(err).Fatal("server error")
	}

	graceful := signals.Setup()

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort)
		lc := net.ListenConfig{}
		listener, err := lc.Listen(ctx, "tcp", addr)
		if err != nil {
			log.Err(err).Fatal("failed to bind port")
		}

		log.Info("server started", logger.Data{"port": listener.Addr().(*net.TCPAddr).Port})

		err = srv.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Fatal("server stopped")
		}
		log.Info("server stopped")
	}()

	wrkr.Start()
	log.Info("worker started")

	if err := scheduler.Start(); err != nil {
		log.Err(err).Fatal("scheduler error")
	}
	log.Info("scheduler started", logger.Data{"reconcile_schedule": cfg.PaymentReconcileSchedule})

	<-graceful
	log.Info("starting graceful shutdown")

	err = srv.Shutdown(ctx)
	if err != nil {
		log.Err(err).Error("server shutdown error")
	}
	log.Info("server shutdown")

	scheduler.Stop()
	log.Info("scheduler shutdown")

	wrkr.Shutdown()
	log.Info("worker shutdown")

	err = db.Close()
	if err != nil {
		log.Err(err).Error("database close error")
	}
	log.Info("database closed")
}

// initUploadDir creates the upload directory and verifies write permissions.
func initUploadDir(dir string) error {
	if dir == "" {
		return errors.New("upload_dir is not configured")
	}

	if err := os.MkdirAll(filepath.Join(dir, "tickets"), 0755); err != nil {
		return errors.Wrapf(err, "failed to create upload directory: %s", dir)
	}

	testFile := filepath.Join(dir, ".write_test")
	f, err := os.Create(testFile)
	if err != nil {
		return errors.Wrapf(err, "upload directory is not writable: %s", dir)
	}
	f.Close()

	if err := os.Remove(testFile); err != nil {
		return errors.Wrapf(err, "failed to clean up write test file: %s", testFile)
	}

	return nil
}
