// Package main provides the CLI entry point for the passchain vault engine.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/cooky451/passchain-go/internal/config"
	"github.com/cooky451/passchain-go/internal/logging"
	"github.com/cooky451/passchain-go/internal/vault"
	"github.com/cooky451/passchain-go/internal/vault/model"
	"github.com/cooky451/passchain-go/internal/vaultcrypto"
)

var (
	// Version is set at build time via ldflags.
	Version = "dev"
)

var cfgPath string

func main() {
	rootCmd := &cobra.Command{
		Use:     "passchain",
		Short:   "passchain - encrypted credential vault",
		Version: Version,
		Long: `passchain is a password-protected store of login entries,
persisted as a single authenticated-encrypted binary file on disk.

Every subcommand that touches a vault prompts for the master password
on stdin with echo disabled; the password itself never appears on the
command line.`,
	}

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to CLI config file (yaml)")

	rootCmd.AddCommand(
		initCmd(),
		addCmd(),
		listCmd(),
		showCmd(),
		generateCmd(),
		exportCmd(),
		importCmd(),
		mergeCmd(),
		armorCmd(),
		dearmorCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the CLI's own configuration, falling back to defaults
// when cfgPath is empty or the file doesn't exist.
func loadConfig() *config.Config {
	if cfgPath == "" {
		return config.Default()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "warning: falling back to default config:", err)
		return config.Default()
	}
	return cfg
}

// promptPassword reads a master password from stdin with echo disabled,
// optionally asking a second time to catch typos.
func promptPassword(confirm bool) (string, error) {
	fmt.Print("Master password: ")
	pwBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}

	if confirm {
		fmt.Print("Confirm password: ")
		confirmBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("reading confirmation: %w", err)
		}
		if string(pwBytes) != string(confirmBytes) {
			return "", fmt.Errorf("passwords do not match")
		}
	}

	return string(pwBytes), nil
}

// warnIfUnfamiliarVault logs a warning when path doesn't fingerprint-match
// the last vault the CLI remembers touching, then updates the fingerprint.
// Failures to persist the updated config are non-fatal: the fingerprint is
// a convenience nudge, not a security control.
func warnIfUnfamiliarVault(logger *slog.Logger, cfg *config.Config, path string) {
	if cfg.Recent.PathHash != "" && !cfg.Recent.Matches(path) {
		logger.Warn("opening a vault path different from the last one remembered",
			logging.KeyComponent, "cli",
			logging.KeyVaultPath, path)
	}
	if err := cfg.Recent.Remember(path); err != nil {
		logger.Debug("could not fingerprint vault path", logging.KeyError, err)
		return
	}
	if cfgPath == "" {
		return
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return
	}
	_ = os.WriteFile(cfgPath, data, 0o600)
}

// openVault reads path, constructs a Database under password, and folds
// the file's records into it.
func openVault(logger *slog.Logger, path, password string) (*vault.Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vault file: %w", err)
	}

	db, err := vault.New(logger, password)
	if err != nil {
		return nil, err
	}
	if err := db.MergeFromEncryptedFile(data); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func saveVault(db *vault.Database, path string) error {
	data, err := db.Serialize(time.Now().Unix())
	if err != nil {
		return fmt.Errorf("serializing vault: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing vault file: %w", err)
	}
	return nil
}

// generatorSpecFromFlags builds a GeneratorSpec from explicitly-set flags,
// falling back to the CLI config's generator defaults for every flag the
// caller left at its zero value on the command line.
func generatorSpecFromFlags(flags *pflag.FlagSet, def config.GeneratorConfig, extraAB string, length uint16, letters, numbers, special, extra bool) model.GeneratorSpec {
	spec := model.GeneratorSpec{
		ExtraAlphabet:  def.ExtraAlphabet,
		PasswordLength: def.PasswordLength,
		UseLetters:     def.UseLetters,
		UseNumbers:     def.UseNumbers,
		UseSpecial:     def.UseSpecial,
		UseExtra:       def.UseExtra,
	}
	if flags.Changed("extra-alphabet") {
		spec.ExtraAlphabet = extraAB
	}
	if flags.Changed("length") {
		spec.PasswordLength = length
	}
	if flags.Changed("letters") {
		spec.UseLetters = letters
	}
	if flags.Changed("numbers") {
		spec.UseNumbers = numbers
	}
	if flags.Changed("special") {
		spec.UseSpecial = special
	}
	if flags.Changed("extra") {
		spec.UseExtra = extra
	}
	return spec
}

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init <file>",
		Short: "create a new, empty vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			cfg := loadConfig()
			logger := logging.NewLogger(cfg.Log.Level, cfg.Log.Format)

			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("refusing to overwrite existing file %q", path)
			}

			password, err := promptPassword(true)
			if err != nil {
				return err
			}

			db, err := vault.New(logger, password)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := saveVault(db, path); err != nil {
				return err
			}

			fmt.Printf("created empty vault at %s\n", path)
			return nil
		},
	}
	return cmd
}

func addCmd() *cobra.Command {
	var (
		name    string
		comment string
		hidden  bool
		length  uint16
		letters bool
		numbers bool
		special bool
		extra   bool
		extraAB string
		user    string
	)

	cmd := &cobra.Command{
		Use:   "add <file>",
		Short: "add a new entry with a freshly generated password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			cfg := loadConfig()
			logger := logging.NewLogger(cfg.Log.Level, cfg.Log.Format)

			password, err := promptPassword(false)
			if err != nil {
				return err
			}

			warnIfUnfamiliarVault(logger, cfg, path)
			db, err := openVault(logger, path, password)
			if err != nil {
				return err
			}
			defer db.Close()

			spec := generatorSpecFromFlags(cmd.Flags(), cfg.Generator, extraAB, length, letters, numbers, special, extra)
			generated, err := db.GeneratePassword(spec)
			if err != nil {
				return err
			}

			now := time.Now().Unix()
			entry := &model.Entry{
				Timestamp: now,
				Name:      name,
				Comment:   comment,
				Generator: spec,
				Hidden:    hidden,
				Snapshots: []model.Snapshot{
					{Timestamp: now, Username: user, Password: generated},
				},
			}
			pushed := db.PushEntry(entry)

			if err := saveVault(db, path); err != nil {
				return err
			}

			fmt.Printf("added entry %d (%s)\n", pushed.UniqueID, name)
			fmt.Println("generated password:", generated)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "entry name")
	cmd.Flags().StringVar(&comment, "comment", "", "entry comment")
	cmd.Flags().StringVar(&user, "username", "", "initial snapshot username")
	cmd.Flags().BoolVar(&hidden, "hidden", false, "mark entry hidden in listings")
	cmd.Flags().Uint16Var(&length, "length", 20, "generated password length")
	cmd.Flags().BoolVar(&letters, "letters", true, "include letters in generated password")
	cmd.Flags().BoolVar(&numbers, "numbers", true, "include numbers in generated password")
	cmd.Flags().BoolVar(&special, "special", true, "include special characters in generated password")
	cmd.Flags().BoolVar(&extra, "extra", false, "include the extra alphabet in generated password")
	cmd.Flags().StringVar(&extraAB, "extra-alphabet", "", "extra alphabet characters")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <file> [search]",
		Short: "list entries, ranked by an optional search string",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			var search string
			if len(args) > 1 {
				search = args[1]
			}

			cfg := loadConfig()
			logger := logging.NewLogger(cfg.Log.Level, cfg.Log.Format)

			password, err := promptPassword(false)
			if err != nil {
				return err
			}

			warnIfUnfamiliarVault(logger, cfg, path)
			db, err := openVault(logger, path, password)
			if err != nil {
				return err
			}
			defer db.Close()

			db.Sort(search)

			now := time.Now()
			fmt.Printf("%-20s %-8s %-10s %s\n", "ID", "HIDDEN", "SNAPSHOTS", "NAME (last modified)")
			for i := 0; ; i++ {
				entry, ok := db.GetByIndex(i)
				if !ok {
					break
				}
				modified := time.Unix(entry.Timestamp, 0)
				fmt.Printf("%-20s %-8v %-10d %s (%s)\n",
					strconv.FormatUint(entry.UniqueID, 16),
					entry.Hidden,
					len(entry.Snapshots),
					entry.Name,
					humanize.RelTime(modified, now, "ago", "from now"))
			}
			return nil
		},
	}
	return cmd
}

func showCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <file> <id>",
		Short: "show one entry's plaintext fields",
		Long: `show unmasks one entry's secret fields for the duration of this call
only; this is a deliberate secret-releasing operation, same as the
text export.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			id, err := strconv.ParseUint(args[1], 0, 64)
			if err != nil {
				return fmt.Errorf("parsing entry id: %w", err)
			}

			cfg := loadConfig()
			logger := logging.NewLogger(cfg.Log.Level, cfg.Log.Format)

			password, err := promptPassword(false)
			if err != nil {
				return err
			}

			warnIfUnfamiliarVault(logger, cfg, path)
			db, err := openVault(logger, path, password)
			if err != nil {
				return err
			}
			defer db.Close()

			entry, ok := db.FindByID(id)
			if !ok {
				return fmt.Errorf("no entry with id %d", id)
			}

			return db.WithEntryPlaintext(entry, func() error {
				fmt.Printf("id:      %d\n", entry.UniqueID)
				fmt.Printf("name:    %s\n", entry.Name)
				fmt.Printf("comment: %s\n", entry.Comment)
				fmt.Printf("hidden:  %v\n", entry.Hidden)
				fmt.Println("snapshots:")
				for _, s := range entry.Snapshots {
					fmt.Printf("  %s  %s / %s\n",
						time.Unix(s.Timestamp, 0).Format(time.RFC3339), s.Username, s.Password)
				}
				return nil
			})
		},
	}
	return cmd
}

func generateCmd() *cobra.Command {
	var (
		length  uint16
		letters bool
		numbers bool
		special bool
		extra   bool
		extraAB string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "generate a password from flags, without opening any vault",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			logger := logging.NewLogger(cfg.Log.Level, cfg.Log.Format)

			// A throwaway database exists purely to own the CSPRNG the
			// generator draws from; nothing is persisted.
			db, err := vault.New(logger, "")
			if err != nil {
				return err
			}
			defer db.Close()

			spec := generatorSpecFromFlags(cmd.Flags(), cfg.Generator, extraAB, length, letters, numbers, special, extra)
			password, err := db.GeneratePassword(spec)
			if err != nil {
				return err
			}
			fmt.Println(password)
			return nil
		},
	}

	cmd.Flags().Uint16Var(&length, "length", 20, "password length")
	cmd.Flags().BoolVar(&letters, "letters", true, "include letters")
	cmd.Flags().BoolVar(&numbers, "numbers", true, "include numbers")
	cmd.Flags().BoolVar(&special, "special", true, "include special characters")
	cmd.Flags().BoolVar(&extra, "extra", false, "include the extra alphabet")
	cmd.Flags().StringVar(&extraAB, "extra-alphabet", "", "extra alphabet characters")

	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <file> <out.txt>",
		Short: "export a vault's entries to the plaintext property-tree format",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, out := args[0], args[1]
			cfg := loadConfig()
			logger := logging.NewLogger(cfg.Log.Level, cfg.Log.Format)

			password, err := promptPassword(false)
			if err != nil {
				return err
			}

			warnIfUnfamiliarVault(logger, cfg, path)
			db, err := openVault(logger, path, password)
			if err != nil {
				return err
			}
			defer db.Close()

			text, err := db.SerializeText()
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, text, 0o600); err != nil {
				return fmt.Errorf("writing export file: %w", err)
			}

			fmt.Printf("exported %d entries to %s\n", db.CountEntries(), out)
			return nil
		},
	}
	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file> <in.txt>",
		Short: "merge a plaintext property-tree export into a vault",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, in := args[0], args[1]
			cfg := loadConfig()
			logger := logging.NewLogger(cfg.Log.Level, cfg.Log.Format)

			password, err := promptPassword(false)
			if err != nil {
				return err
			}

			warnIfUnfamiliarVault(logger, cfg, path)
			db, err := openVault(logger, path, password)
			if err != nil {
				return err
			}
			defer db.Close()

			text, err := os.ReadFile(in)
			if err != nil {
				return fmt.Errorf("reading import file: %w", err)
			}
			if err := db.MergeFromText(text, time.Now().Unix()); err != nil {
				return err
			}

			if err := saveVault(db, path); err != nil {
				return err
			}
			fmt.Printf("imported %s into %s\n", in, path)
			return nil
		},
	}
	return cmd
}

// armorCmd wraps an encrypted container file as base64 text, byte for
// byte, so the result survives a paste into an email or a chat window that
// would otherwise mangle raw binary.
func armorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "armor <file> <out.txt>",
		Short: "base64-encode an encrypted vault file for transport as text",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, out := args[0], args[1]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading vault file: %w", err)
			}
			encoded := vaultcrypto.Base64Encode(data)
			if err := os.WriteFile(out, []byte(encoded), 0o600); err != nil {
				return fmt.Errorf("writing armored file: %w", err)
			}
			fmt.Printf("armored %d bytes from %s to %s\n", len(data), path, out)
			return nil
		},
	}
	return cmd
}

// dearmorCmd reverses armorCmd.
func dearmorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dearmor <in.txt> <out-file>",
		Short: "decode a base64-armored vault file back to its binary form",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, out := args[0], args[1]
			encoded, err := os.ReadFile(in)
			if err != nil {
				return fmt.Errorf("reading armored file: %w", err)
			}
			data, err := vaultcrypto.Base64Decode(strings.TrimSpace(string(encoded)))
			if err != nil {
				return fmt.Errorf("decoding armored file: %w", err)
			}
			if err := os.WriteFile(out, data, 0o600); err != nil {
				return fmt.Errorf("writing vault file: %w", err)
			}
			fmt.Printf("dearmored %s to %d bytes at %s\n", in, len(data), out)
			return nil
		},
	}
	return cmd
}

func mergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge <file> <other-file>",
		Short: "append every record from another encrypted vault file sharing the same master password",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, other := args[0], args[1]
			cfg := loadConfig()
			logger := logging.NewLogger(cfg.Log.Level, cfg.Log.Format)

			password, err := promptPassword(false)
			if err != nil {
				return err
			}

			warnIfUnfamiliarVault(logger, cfg, path)
			db, err := openVault(logger, path, password)
			if err != nil {
				return err
			}
			defer db.Close()

			otherData, err := os.ReadFile(other)
			if err != nil {
				return fmt.Errorf("reading other vault file: %w", err)
			}
			if err := db.MergeFromEncryptedFile(otherData); err != nil {
				return err
			}

			if err := saveVault(db, path); err != nil {
				return err
			}
			fmt.Printf("merged %s into %s\n", other, path)
			return nil
		},
	}
	return cmd
}
