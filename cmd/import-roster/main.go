// Command import-roster loads class rosters from an .xlsx workbook into the
// keyed store. Each sheet is one class named "<Department> <Year> <Name>";
// the first row is a header and the columns are ID, Name, PRN, CGPA.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/techsynergy/campus-backend/internal/config"
	"github.com/techsynergy/campus-backend/internal/database"
	"github.com/techsynergy/campus-backend/internal/logger"
	"github.com/techsynergy/campus-backend/internal/model"
	"github.com/techsynergy/campus-backend/internal/service"
	"github.com/xuri/excelize/v2"
)

func main() {
	var (
		path      string
		facultyID int
	)
	flag.StringVar(&path, "file", "", "Path to the roster workbook")
	flag.IntVar(&facultyID, "faculty", 0, "Faculty user ID that owns the imported classes")
	flag.Parse()

	if path == "" {
		fmt.Println("Usage: import-roster -file roster.xlsx [-faculty id]")
		os.Exit(2)
	}

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var rdb *redis.Client
	if cfg.KVDriver == config.KVDriverRedis {
		client, err := database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer client.Close()
		rdb = client
	}

	kv, closeKV, err := database.NewKVStore(cfg, rdb, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open keyed store")
	}
	defer closeKV()

	classes, err := readWorkbook(path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("Failed to read roster")
	}

	// Nothing is published from the CLI, so no notifier is needed.
	studyGroups := service.NewStudyGroupService(kv, nil, log)

	for _, class := range classes {
		class.FacultyID = facultyID
		saved, created, err := studyGroups.ImportClass(ctx, class)
		if err != nil {
			log.Fatal().Err(err).Str("class", class.Name).Msg("Import failed")
		}
		action := "updated"
		if created {
			action = "created"
		}
		fmt.Printf("%s %s (%s %s): %d students [%s]\n", action, saved.Name, saved.Department, saved.Year, len(saved.Students), saved.ID)
	}
}

// readWorkbook parses every sheet into a class roster.
func readWorkbook(path string) ([]model.StudyClass, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var classes []model.StudyClass
	for _, sheet := range f.GetSheetList() {
		dept, year, name, ok := splitSheetName(sheet)
		if !ok {
			return nil, fmt.Errorf("sheet %q: name must be \"<Department> <Year> <Name>\"", sheet)
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", sheet, err)
		}
		students, err := parseRows(rows)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", sheet, err)
		}
		classes = append(classes, model.StudyClass{
			Name:       name,
			Department: dept,
			Year:       year,
			Students:   students,
		})
	}
	return classes, nil
}

func splitSheetName(sheet string) (dept, year, name string, ok bool) {
	parts := strings.Fields(sheet)
	if len(parts) < 3 {
		return "", "", "", false
	}
	return parts[0], parts[1], strings.Join(parts[2:], " "), true
}

// parseRows skips the header row and blank lines.
func parseRows(rows [][]string) ([]model.GroupMember, error) {
	students := []model.GroupMember{}
	seen := make(map[string]bool)
	for i, row := range rows {
		if i == 0 || len(row) < 2 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		m := model.GroupMember{
			ID:   strings.TrimSpace(row[0]),
			Name: strings.TrimSpace(row[1]),
		}
		if len(row) > 2 {
			m.PRN = strings.TrimSpace(row[2])
		}
		if len(row) > 3 && strings.TrimSpace(row[3]) != "" {
			cgpa, err := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
			if err != nil || cgpa < 0 || cgpa > 10 {
				return nil, fmt.Errorf("row %d: invalid CGPA %q", i+1, row[3])
			}
			m.CGPA = cgpa
		}
		if seen[m.ID] {
			return nil, fmt.Errorf("row %d: duplicate student ID %q", i+1, m.ID)
		}
		seen[m.ID] = true
		students = append(students, m)
	}
	return students, nil
}
