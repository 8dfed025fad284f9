package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/repository"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/seed"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var people int
	var weeks int
	var file string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机排班表, 2: 从 YAML 文件导入排班表)")
	flag.IntVar(&n, "n", 5, "要插入的排班表数量")
	flag.IntVar(&people, "people", 10, "每份随机排班表的人数")
	flag.IntVar(&weeks, "weeks", 8, "每份随机排班表的周数")
	flag.StringVar(&file, "file", "./internal/seed/data/demo.yaml", "要导入的 YAML 文件")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", "error", err)
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	limits := utils.RosterLimits{
		MaxWeeks:  cfg.Roster.MaxWeeks,
		MaxPeople: cfg.Roster.MaxPeople,
		MaxJobs:   cfg.Roster.MaxJobs,
	}

	switch op {
	case 0:
		logger.Error("未指定操作")
	case 1:
		if n <= 0 || people <= 0 || weeks <= 0 || weeks > limits.MaxWeeks || people > limits.MaxPeople {
			logger.Error("请输入合法的数量", "n", n, "people", people, "weeks", weeks)
			return
		}
		cnt := seed.SeedRandomRosters(repo, n, people, weeks, cfg.Seed.EmailDomain)
		logger.Info("插入排班表成功", "count", cnt)
	case 2:
		if _, err := seed.ImportRosterFile(repo, file, limits); err != nil {
			logger.Error("导入排班表失败", "file", file, "error", err)
			return
		}
	default:
		logger.Error("指定的操作非法")
	}
}
