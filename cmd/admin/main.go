package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"offshoreCV/internal/cache"
	"offshoreCV/internal/config"
	"offshoreCV/internal/database"
	"offshoreCV/internal/store"
)

// connFlags 允许在没有完整服务配置时直接连接数据库与 Redis。
type connFlags struct {
	host     string
	port     int
	name     string
	user     string
	password string
	sslmode  string

	redisHost     string
	redisPort     int
	redisPassword string
}

func main() {
	var flags connFlags

	root := &cobra.Command{
		Use:           "admin",
		Short:         "offshoreCV 运维工具",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&flags.host, "db-host", "", "数据库 Host（可选，默认读 DATABASE_HOST）")
	pf.IntVar(&flags.port, "db-port", 0, "数据库 Port（可选，默认读 DATABASE_PORT）")
	pf.StringVar(&flags.name, "db-name", "", "数据库名（可选，默认读 POSTGRES_DB）")
	pf.StringVar(&flags.user, "db-user", "", "数据库用户（可选，默认读 POSTGRES_USER）")
	pf.StringVar(&flags.password, "db-password", "", "数据库密码（可选，默认读 POSTGRES_PASSWORD）")
	pf.StringVar(&flags.sslmode, "db-sslmode", "", "数据库 SSLMODE（可选，默认读 DATABASE_SSLMODE）")
	pf.StringVar(&flags.redisHost, "redis-host", "", "Redis Host（可选，默认读 REDIS_HOST）")
	pf.IntVar(&flags.redisPort, "redis-port", 0, "Redis Port（可选，默认读 REDIS_PORT）")
	pf.StringVar(&flags.redisPassword, "redis-password", "", "Redis 密码（可选，默认读 REDIS_PASSWORD）")

	root.AddCommand(
		createAccountCmd(&flags),
		auditDefaultsCmd(&flags),
		setPlanCmd(&flags),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// openStore 连接数据库并执行迁移。
func openStore(flags *connFlags) (*store.Store, error) {
	dbCfg, err := loadDatabaseConfig(flags.host, flags.port, flags.name, flags.user, flags.password, flags.sslmode)
	if err != nil {
		return nil, fmt.Errorf("load database config: %w", err)
	}
	db, err := database.InitDatabase(dbCfg, os.Getenv("LOG_LEVEL"))
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return store.New(db), nil
}

// openPublicCache 构造公开 CV 缓存，仅用于失效；连接在首次命令时建立。
func openPublicCache(flags *connFlags) (*cache.PublicCV, func(), error) {
	redisCfg, err := loadRedisConfig(flags.redisHost, flags.redisPort, flags.redisPassword)
	if err != nil {
		return nil, nil, fmt.Errorf("load redis config: %w", err)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     redisCfg.Addr(),
		Password: redisCfg.Password,
	})
	// TTL 只影响读写，Invalidate 不依赖它。
	return cache.NewPublicCV(client, time.Minute), func() { _ = client.Close() }, nil
}

func loadRedisConfig(host string, port int, password string) (config.RedisConfig, error) {
	if strings.TrimSpace(host) == "" {
		host = os.Getenv("REDIS_HOST")
	}
	if port <= 0 {
		if env := strings.TrimSpace(os.Getenv("REDIS_PORT")); env != "" {
			p, err := strconv.Atoi(env)
			if err != nil {
				return config.RedisConfig{}, fmt.Errorf("parse REDIS_PORT: %w", err)
			}
			port = p
		}
	}
	if password == "" {
		password = os.Getenv("REDIS_PASSWORD")
	}
	if strings.TrimSpace(host) == "" {
		host = "localhost"
	}
	if port <= 0 {
		port = 6379
	}
	return config.RedisConfig{Host: host, Port: port, Password: password}, nil
}

func loadDatabaseConfig(host string, port int, name, user, password, sslmode string) (config.DatabaseConfig, error) {
	if strings.TrimSpace(host) == "" {
		host = os.Getenv("DATABASE_HOST")
	}
	if port <= 0 {
		if env := strings.TrimSpace(os.Getenv("DATABASE_PORT")); env != "" {
			p, err := strconv.Atoi(env)
			if err != nil {
				return config.DatabaseConfig{}, fmt.Errorf("parse DATABASE_PORT: %w", err)
			}
			port = p
		}
	}
	if strings.TrimSpace(name) == "" {
		name = os.Getenv("POSTGRES_DB")
	}
	if strings.TrimSpace(user) == "" {
		user = os.Getenv("POSTGRES_USER")
	}
	if strings.TrimSpace(password) == "" {
		password = os.Getenv("POSTGRES_PASSWORD")
	}
	if strings.TrimSpace(sslmode) == "" {
		sslmode = os.Getenv("DATABASE_SSLMODE")
	}

	if strings.TrimSpace(host) == "" {
		host = "localhost"
	}
	if port <= 0 {
		port = 5432
	}
	if strings.TrimSpace(sslmode) == "" {
		sslmode = "disable"
	}
	if strings.TrimSpace(name) == "" {
		return config.DatabaseConfig{}, errors.New("database name is required (POSTGRES_DB)")
	}
	if strings.TrimSpace(user) == "" {
		return config.DatabaseConfig{}, errors.New("database user is required (POSTGRES_USER)")
	}
	if strings.TrimSpace(password) == "" {
		return config.DatabaseConfig{}, errors.New("database password is required (POSTGRES_PASSWORD)")
	}

	return config.DatabaseConfig{
		Host:         host,
		Port:         port,
		Name:         name,
		User:         user,
		Password:     password,
		SSLMode:      sslmode,
		MaxOpenConns: 2,
	}, nil
}
