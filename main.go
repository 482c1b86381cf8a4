package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/olekukonko/tablewriter"

	"github.com/cgpdata/chielect/importer"
	"github.com/cgpdata/chielect/migrations"
	"github.com/cgpdata/chielect/nlquery"
	"github.com/cgpdata/chielect/vintage"
)

func init() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Fatal("Error loading .env file")
	}
}

func main() {
	// Connect to database using environment variables
	psqlInfo := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"))

	db, err := sql.Open("postgres", psqlInfo)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	// Test connection
	err = db.Ping()
	if err != nil {
		log.Fatal(err)
	}

	// Initialize database schema
	if err := migrations.InitSchema(db); err != nil {
		log.Printf("Warning: Error initializing schema: %v", err)
	}

	vintages, err := vintage.Load(os.Getenv("VINTAGE_CONFIG"))
	if err != nil {
		log.Fatal(err)
	}

	for {
		displayMenu()
		choice := readChoice()

		switch choice {
		case "1":
			handleElectionImport(db, vintages)
		case "2":
			handleBoundaryImport(db, vintages)
		case "3":
			handleInspectGeoJSON()
		case "4":
			handleCheckDuplicates(vintages)
		case "5":
			displayBoundaryCoverage(db)
		case "6":
			displayTurnoutByWard(db)
		case "7":
			displayContestResults(db)
		case "8":
			searchPrecinct(db)
		case "9":
			displayYearComparison(db)
		case "10":
			handleNLQuery(db)
		case "11":
			handleResetTables(db)
		case "12":
			color.Green("Thank you for using the Chicago Election Results Database!")
			return
		default:
			color.Red("Invalid choice. Please try again.")
		}
	}
}

func displayMenu() {
	color.Cyan("\n=== Chicago Election Results Database ===")
	fmt.Println("1. Import Election Results (CSV)")
	fmt.Println("2. Import Precinct Boundaries (GeoJSON)")
	fmt.Println("3. Inspect GeoJSON Files")
	fmt.Println("4. Check Duplicate Precincts")
	fmt.Println("5. Boundary Coverage Report")
	fmt.Println("6. Turnout by Ward")
	fmt.Println("7. Contest Results")
	fmt.Println("8. Search Precinct")
	fmt.Println("9. Year Comparison")
	fmt.Println("10. Natural Language Query")
	fmt.Println("11. Reset Tables")
	fmt.Println("12. Exit")
	fmt.Print("\nEnter your choice (1-12): ")
}

func handleElectionImport(db *sql.DB, vintages *vintage.Config) {
	fmt.Print("Enter the CSV file path: ")
	filename := readString()

	fmt.Print("Enter the election year (e.g., 2023): ")
	year := readInt()

	v, err := vintages.ForYear(year)
	if err != nil {
		color.Red("Error: %v", err)
		return
	}

	fmt.Print("Enter the election ID (number): ")
	electionID := readInt()

	fmt.Print("Enter the election date (YYYY-MM-DD, blank if unknown): ")
	electionDate := readString()

	fmt.Print("Enter the contest ID (number): ")
	contestID := readInt()

	fmt.Print("Enter the contest name (e.g., Mayor): ")
	contestName := readString()

	fmt.Printf("\nReady to import %s for year %d using the %s precinct layout\n",
		filename, year, v.Label)
	fmt.Print("Proceed with import? (y/n): ")

	if strings.ToLower(readString()) != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	file, err := os.Open(filename)
	if err != nil {
		color.Red("Error opening file: %v", err)
		return
	}
	defer file.Close()

	reader := csv.NewReader(file)

	config := importer.ImportConfig{
		ElectionID:   electionID,
		ContestID:    contestID,
		Year:         year,
		ElectionDate: electionDate,
		ContestName:  contestName,
		SourceFile:   filename,
		BatchSize:    importer.DefaultBatchSize,
		Vintage:      v,
	}

	if err := importer.ImportElections(context.Background(), db, config, reader); err != nil {
		color.Red("Error importing data: %v", err)
	} else {
		color.Green("Import completed successfully!")
	}
}

func handleBoundaryImport(db *sql.DB, vintages *vintage.Config) {
	fmt.Print("Enter the GeoJSON file path: ")
	filename := readString()

	fmt.Print("Enter the first year these boundaries apply (e.g., 2023): ")
	validFrom := readInt()

	fmt.Print("Enter the last year they apply (blank if still current): ")
	validToRaw := readString()
	validTo := 0
	if validToRaw != "" {
		validTo, _ = strconv.Atoi(validToRaw)
	}

	v, err := vintages.ForYear(validFrom)
	if err != nil {
		color.Red("Error: %v", err)
		return
	}

	fmt.Printf("\nReady to import boundaries from %s (%s layout)\n", filename, v.Label)
	fmt.Print("Proceed? This replaces any existing boundaries for that starting year (y/n): ")

	if strings.ToLower(readString()) != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	config := importer.GeometryImportConfig{
		SourceFile:    filename,
		ValidFromYear: validFrom,
		ValidToYear:   validTo,
		Vintage:       v,
	}

	if err := importer.ImportGeometries(context.Background(), db, config); err != nil {
		color.Red("Error importing boundaries: %v", err)
	} else {
		color.Green("Boundary import completed successfully!")
	}
}

func handleInspectGeoJSON() {
	fmt.Print("Enter GeoJSON file paths (comma separated): ")
	paths := strings.Split(readString(), ",")

	var infos []*importer.GeoJSONInfo
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		info, err := importer.InspectGeoJSON(path)
		if err != nil {
			color.Red("Error inspecting %s: %v", path, err)
			continue
		}
		infos = append(infos, info)
	}

	if len(infos) == 0 {
		fmt.Println("Nothing to inspect.")
		return
	}

	importer.RenderInspection(os.Stdout, infos)
}

func handleCheckDuplicates(vintages *vintage.Config) {
	fmt.Print("Enter the GeoJSON file path: ")
	filename := readString()

	fmt.Print("Enter the year the file covers (e.g., 2023): ")
	year := readInt()

	v, err := vintages.ForYear(year)
	if err != nil {
		color.Red("Error: %v", err)
		return
	}

	report, err := importer.CheckDuplicates(filename, v)
	if err != nil {
		color.Red("Error checking duplicates: %v", err)
		return
	}

	importer.RenderDuplicateReport(os.Stdout, report)
}

func displayBoundaryCoverage(db *sql.DB) {
	query := `
		SELECT
			r.year,
			COUNT(DISTINCT r.precinct_id) AS result_precincts,
			COUNT(DISTINCT g.precinct_id) AS matched_precincts
		FROM election_results r
		LEFT JOIN precinct_geometries g
			ON g.precinct_id = r.precinct_id
			AND g.valid_from_year <= r.year
			AND (g.valid_to_year IS NULL OR g.valid_to_year >= r.year)
		GROUP BY r.year
		ORDER BY r.year
	`

	rows, err := db.Query(query)
	if err != nil {
		log.Printf("Error getting boundary coverage: %v", err)
		return
	}
	defer rows.Close()

	color.Yellow("\nBoundary Coverage by Year")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Year", "Result Precincts", "With Boundary", "Coverage"})

	for rows.Next() {
		var year, results, matched int

		err := rows.Scan(&year, &results, &matched)
		if err != nil {
			continue
		}

		coverage := 0.0
		if results > 0 {
			coverage = float64(matched) / float64(results) * 100
		}

		table.Append([]string{
			fmt.Sprintf("%d", year),
			fmt.Sprintf("%d", results),
			fmt.Sprintf("%d", matched),
			fmt.Sprintf("%.1f%%", coverage),
		})
	}

	table.Render()
}

func displayTurnoutByWard(db *sql.DB) {
	fmt.Print("Enter the election year: ")
	year := readInt()

	query := `
		SELECT
			SUBSTRING(precinct_id FROM 1 FOR 2) AS ward,
			SUM(CASE WHEN option_name = 'registered' THEN option_votes ELSE 0 END) AS registered,
			SUM(CASE WHEN option_name = 'ballots' THEN option_votes ELSE 0 END) AS ballots
		FROM election_results
		WHERE year = $1 AND option_name IN ('registered', 'ballots')
		GROUP BY ward
		ORDER BY ward
	`

	rows, err := db.Query(query, year)
	if err != nil {
		log.Printf("Error getting turnout: %v", err)
		return
	}
	defer rows.Close()

	color.Yellow("\nTurnout by Ward (%d)", year)
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Ward", "Registered", "Ballots", "Turnout"})

	for rows.Next() {
		var ward string
		var registered, ballots int64

		err := rows.Scan(&ward, &registered, &ballots)
		if err != nil {
			continue
		}

		turnout := "N/A"
		if registered > 0 {
			turnout = fmt.Sprintf("%.1f%%", float64(ballots)/float64(registered)*100)
		}

		table.Append([]string{
			ward,
			fmt.Sprintf("%d", registered),
			fmt.Sprintf("%d", ballots),
			turnout,
		})
	}

	table.Render()
}

func displayContestResults(db *sql.DB) {
	fmt.Print("Enter contest name to search (e.g., Mayor): ")
	contest := readString()

	query := `
		SELECT
			year,
			contest_name,
			option_name,
			SUM(option_votes) AS total_votes
		FROM election_results
		WHERE LOWER(contest_name) LIKE LOWER($1)
			AND option_name NOT IN ('registered', 'ballots')
		GROUP BY year, contest_name, option_name
		ORDER BY year DESC, total_votes DESC
		LIMIT 30
	`

	rows, err := db.Query(query, "%"+contest+"%")
	if err != nil {
		log.Printf("Error getting contest results: %v", err)
		return
	}
	defer rows.Close()

	color.Yellow("\nContest Results")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Year", "Contest", "Option", "Votes"})

	for rows.Next() {
		var year int
		var contestName, option string
		var votes int64

		err := rows.Scan(&year, &contestName, &option, &votes)
		if err != nil {
			continue
		}

		table.Append([]string{
			fmt.Sprintf("%d", year),
			contestName,
			option,
			fmt.Sprintf("%d", votes),
		})
	}

	table.Render()
}

func searchPrecinct(db *sql.DB) {
	fmt.Print("Enter the ward number: ")
	ward := readInt()
	fmt.Print("Enter the precinct number: ")
	prec := readInt()
	fmt.Print("Enter the election year: ")
	year := readInt()

	query := `
		SELECT contest_name, option_name, option_votes, option_percent
		FROM election_results
		WHERE precinct_id = $1 AND year = $2
		ORDER BY contest_id, option_votes DESC
	`

	key := fmt.Sprintf("%02d%03d", ward, prec)
	rows, err := db.Query(query, key, year)
	if err != nil {
		log.Printf("Error searching precinct: %v", err)
		return
	}
	defer rows.Close()

	color.Yellow("\nResults for Precinct %03d Ward %02d (%d)", prec, ward, year)
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Contest", "Option", "Votes", "Percent"})

	found := false
	for rows.Next() {
		var contestName, option string
		var votes int64
		var percent sql.NullFloat64

		err := rows.Scan(&contestName, &option, &votes, &percent)
		if err != nil {
			continue
		}
		found = true

		pct := "N/A"
		if percent.Valid {
			pct = fmt.Sprintf("%.2f%%", percent.Float64)
		}

		table.Append([]string{
			contestName,
			option,
			fmt.Sprintf("%d", votes),
			pct,
		})
	}

	if !found {
		fmt.Println("No results found for that precinct and year.")
		return
	}

	table.Render()
}

func displayYearComparison(db *sql.DB) {
	query := `
		SELECT
			year,
			COUNT(DISTINCT precinct_id) AS precincts,
			COUNT(DISTINCT contest_id) AS contests,
			SUM(CASE WHEN option_name = 'ballots' THEN option_votes ELSE 0 END) AS ballots
		FROM election_results
		GROUP BY year
		ORDER BY year
	`

	rows, err := db.Query(query)
	if err != nil {
		log.Printf("Error getting year comparison: %v", err)
		return
	}
	defer rows.Close()

	color.Yellow("\nElections by Year")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Year", "Precincts", "Contests", "Ballots Cast"})

	for rows.Next() {
		var year, precincts, contests int
		var ballots int64

		err := rows.Scan(&year, &precincts, &contests, &ballots)
		if err != nil {
			continue
		}

		table.Append([]string{
			fmt.Sprintf("%d", year),
			fmt.Sprintf("%d", precincts),
			fmt.Sprintf("%d", contests),
			fmt.Sprintf("%d", ballots),
		})
	}

	table.Render()
}

func handleNLQuery(db *sql.DB) {
	ctx := context.Background()
	engine, err := nlquery.NewNLQueryEngine(ctx, db)
	if err != nil {
		color.Red("Error initializing query engine: %v", err)
		return
	}
	defer engine.Close()

	fmt.Println("\nAsk questions about the election data in plain English.")
	fmt.Println("Type 'exit' to return to the main menu.")

	for {
		fmt.Print("\nYour question: ")
		question := readString()
		if question == "" {
			continue
		}
		if strings.EqualFold(question, "exit") {
			return
		}

		if err := engine.ProcessQuery(ctx, question); err != nil {
			color.Red("%v", err)
		}
	}
}

func handleResetTables(db *sql.DB) {
	color.Red("\nWARNING: this drops all election results and boundaries.")
	fmt.Print("Type 'reset' to confirm: ")

	if readString() != "reset" {
		fmt.Println("Reset cancelled.")
		return
	}

	if err := migrations.ResetTables(db); err != nil {
		color.Red("Error resetting tables: %v", err)
		return
	}
	if err := migrations.InitSchema(db); err != nil {
		color.Red("Error recreating schema: %v", err)
		return
	}
	color.Green("Tables reset successfully.")
}

func readChoice() string {
	var input string
	fmt.Scanln(&input)
	return strings.TrimSpace(input)
}

func readString() string {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Scan()
	return strings.TrimSpace(scanner.Text())
}

func readInt() int {
	var input string
	fmt.Scanln(&input)
	i, _ := strconv.Atoi(input)
	return i
}
