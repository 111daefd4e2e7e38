package config_test

import (
	"errors"
	"os"
	"testing"

	"github.com/okian/rollcall/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.UploadQueueSize, convey.ShouldEqual, 256)
				convey.So(cfg.StoreDriver, convey.ShouldEqual, "memory")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("ROLLCALL_ADDR", ":8080")
			_ = os.Setenv("ROLLCALL_QUEUE_SIZE", "64")
			_ = os.Setenv("ROLLCALL_WORKER_COUNT", "2")
			_ = os.Setenv("ROLLCALL_MATCH_THRESHOLD", "80")
			_ = os.Setenv("ROLLCALL_AGREEMENT_TOLERANCE", "2500")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.UploadQueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 2)
				convey.So(cfg.MatchThreshold, convey.ShouldEqual, 80)
				convey.So(cfg.AgreementTolerance, convey.ShouldEqual, 2500)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
queue_size: 512
store_driver: postgres
database_dsn: "postgres://rollcall@localhost/rollcall"
sticky_fraction: 0.75
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("ROLLCALL_CONFIG", tmpFile)
			_ = os.Setenv("ROLLCALL_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.UploadQueueSize, convey.ShouldEqual, 512)
				convey.So(cfg.StoreDriver, convey.ShouldEqual, config.StorePostgres)
				convey.So(cfg.StickyFraction, convey.ShouldEqual, 0.75)
				convey.So(cfg.MaxRank, convey.ShouldEqual, 50)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("ROLLCALL_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("ROLLCALL_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the postgres driver is selected without a dsn", func() {
			_ = os.Setenv("ROLLCALL_STORE_DRIVER", "postgres")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "database_dsn")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("ROLLCALL_QUEUE_SIZE", "invalid")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"ROLLCALL_CONFIG",
		"ROLLCALL_ADDR",
		"ROLLCALL_QUEUE_SIZE",
		"ROLLCALL_WORKER_COUNT",
		"ROLLCALL_STORE_DRIVER",
		"ROLLCALL_MATCH_THRESHOLD",
		"ROLLCALL_AGREEMENT_TOLERANCE",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "rollcall-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
