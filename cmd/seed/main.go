package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"starquest/internal/config"
	"starquest/internal/database"
	"starquest/internal/repository"
	"starquest/internal/service"
)

func main() {
	// Define subcommands
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	adminCmd := flag.NewFlagSet("create-admin", flag.ExitOnError)

	// Export flags
	exportOutput := exportCmd.String("output", "", "Output file path (default: catalog_YYYYMMDD_HHMMSS.json)")

	// Import flags
	importInput := importCmd.String("input", "", "Input file path (required)")

	// Admin flags
	adminUsername := adminCmd.String("username", "", "Admin username (required)")
	adminEmail := adminCmd.String("email", "", "Admin email (required)")
	adminPassword := adminCmd.String("password", "", "Admin password (required)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations to ensure schema is up to date
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	seedService := service.NewSeedService(
		repository.NewUserRepository(db),
		repository.NewModuleRepository(db),
		repository.NewSeasonRepository(db),
	)

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		handleExport(seedService, *exportOutput)

	case "import":
		importCmd.Parse(os.Args[2:])
		if *importInput == "" {
			fmt.Println("Error: -input flag is required")
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		handleImport(seedService, *importInput)

	case "create-admin":
		adminCmd.Parse(os.Args[2:])
		if *adminUsername == "" || *adminEmail == "" || *adminPassword == "" {
			fmt.Println("Error: -username, -email and -password flags are required")
			adminCmd.PrintDefaults()
			os.Exit(1)
		}
		handleCreateAdmin(seedService, *adminUsername, *adminEmail, *adminPassword)

	default:
		printUsage()
		os.Exit(1)
	}
}

func handleExport(seedService *service.SeedService, outputPath string) {
	if outputPath == "" {
		timestamp := time.Now().Format("20060102_150405")
		outputPath = fmt.Sprintf("catalog_%s.json", timestamp)
	}

	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create output directory: %v", err)
		}
	}

	log.Printf("Exporting catalog to: %s", outputPath)
	if err := seedService.Export(outputPath); err != nil {
		log.Fatalf("Export failed: %v", err)
	}
	log.Println("Export complete")
}

func handleImport(seedService *service.SeedService, inputPath string) {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		log.Fatalf("Input file does not exist: %s", inputPath)
	}

	log.Printf("Importing catalog from: %s", inputPath)
	if err := seedService.Import(inputPath); err != nil {
		log.Fatalf("Import failed: %v", err)
	}
	log.Println("Import complete")
}

func handleCreateAdmin(seedService *service.SeedService, username, email, password string) {
	user, err := seedService.CreateAdmin(username, email, password)
	if err != nil {
		log.Fatalf("Failed to create admin: %v", err)
	}
	log.Printf("Admin account created: id=%s email=%s", user.ID, user.Email)
}

func printUsage() {
	fmt.Println("Usage: seed <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  export        Export the content catalog to a JSON file")
	fmt.Println("  import        Import a content catalog from a JSON file")
	fmt.Println("  create-admin  Provision an admin account")
}
