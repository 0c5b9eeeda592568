// Command muadhin prints prayer times and the reminders that would be
// registered for them, without any running service.
//
// Usage:
//
//	muadhin times --city Cairo
//	muadhin times --lat 21.4225 --lon 39.8262 --method makkah --tz Asia/Riyadh --date 2024-06-15
//	muadhin alarms --city Istanbul --offset 10 --prayers fajr,isha --lang ar
//	muadhin methods
//	muadhin cities sa
package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"muadhin/internal/alarm"
	"muadhin/internal/config"
	"muadhin/internal/geocode"
	"muadhin/internal/locale"
	"muadhin/internal/logging"
	"muadhin/internal/models"
	"muadhin/internal/prayer"
	"muadhin/internal/schedule"
)

func main() {
	// Load .env if present
	_ = godotenv.Load()
	logging.Setup(config.Load().LogLevel)

	if err := rootCmd(time.Now).Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd(now func() time.Time) *cobra.Command {
	root := &cobra.Command{
		Use:           "muadhin",
		Short:         "Prayer times and reminder preview",
		SilenceUsage: true,
	}
	root.AddCommand(timesCmd(now))
	root.AddCommand(alarmsCmd(now))
	root.AddCommand(methodsCmd())
	root.AddCommand(citiesCmd())
	return root
}

// --------------------------------------------------------------------------
// shared location flags
// --------------------------------------------------------------------------

type dayFlags struct {
	city   string
	lat    float64
	lon    float64
	method string
	tz     string
	date   string
}

func (f *dayFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.city, "city", "", "Catalogue city name, see the cities command")
	cmd.Flags().Float64Var(&f.lat, "lat", 0, "Latitude in degrees")
	cmd.Flags().Float64Var(&f.lon, "lon", 0, "Longitude in degrees")
	cmd.Flags().StringVar(&f.method, "method", string(models.MethodEgyptian), "Calculation method, see the methods command")
	cmd.Flags().StringVar(&f.tz, "tz", "Local", "IANA time zone the times are printed in")
	cmd.Flags().StringVar(&f.date, "date", "", "Day as YYYY-MM-DD, today when empty")
}

// day is a resolved location, method and local calendar day.
type day struct {
	city   models.City
	method models.CalculationMethod
	loc    *time.Location
	date   time.Time
	today  bool
}

func (f *dayFlags) resolve(cmd *cobra.Command, now time.Time) (day, error) {
	var d day
	city, err := f.location(cmd)
	if err != nil {
		return d, err
	}
	if err := city.Coords.Validate(); err != nil {
		return d, err
	}
	method, err := models.ParseMethod(f.method)
	if err != nil {
		return d, err
	}
	loc, err := time.LoadLocation(f.tz)
	if err != nil {
		return d, fmt.Errorf("time zone %q: %w", f.tz, err)
	}

	now = now.In(loc)
	date := now
	if f.date != "" {
		date, err = time.ParseInLocation(time.DateOnly, f.date, loc)
		if err != nil {
			return d, fmt.Errorf("date %q: %w", f.date, err)
		}
	}
	return day{
		city:   city,
		method: method,
		loc:    loc,
		date:   date,
		today:  date.Format(time.DateOnly) == now.Format(time.DateOnly),
	}, nil
}

func (f *dayFlags) location(cmd *cobra.Command) (models.City, error) {
	if f.city != "" {
		matches := geocode.Catalog(f.city)
		for _, c := range matches {
			if strings.EqualFold(c.Name, f.city) {
				return c, nil
			}
		}
		if len(matches) == 0 {
			return models.City{}, fmt.Errorf("no catalogue city matches %q", f.city)
		}
		return matches[0], nil
	}
	if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lon") {
		return models.City{}, fmt.Errorf("either --city or both --lat and --lon are required")
	}
	return geocode.ManualCity(models.Coordinates{Latitude: f.lat, Longitude: f.lon}), nil
}

// ref is the instant events are marked against: now for today, the start of
// the day otherwise.
func (d day) ref(now time.Time) time.Time {
	if d.today {
		return now.In(d.loc)
	}
	y, m, dd := d.date.Date()
	return time.Date(y, m, dd, 0, 0, 0, 0, d.loc)
}

// --------------------------------------------------------------------------
// times command
// --------------------------------------------------------------------------

func timesCmd(now func() time.Time) *cobra.Command {
	var flags dayFlags
	var lang string
	cmd := &cobra.Command{
		Use:   "times",
		Short: "Print the six prayer times of a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := flags.resolve(cmd, now())
			if err != nil {
				return err
			}
			texts := locale.For(models.Language(lang))
			ref := d.ref(now())
			events, err := schedule.Build(prayer.NewAstronomical(), d.city.Coords, d.method, d.date, ref)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s, %s  %s  %s\n\n", d.city.Name, d.city.Country, d.date.Format(time.DateOnly), d.method.Title())
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, e := range events {
				marker := " "
				if e.IsNext {
					marker = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", marker, texts.Name(e.ID), e.NameArabic, e.Time.Format("15:04"))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if d.today {
				fmt.Fprintf(out, "\n%s: %s\n", texts.NextPrayer, schedule.Countdown(events, ref))
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&lang, "lang", string(models.LangEnglish), "Output language (en, ar)")
	return cmd
}

// --------------------------------------------------------------------------
// alarms command
// --------------------------------------------------------------------------

func alarmsCmd(now func() time.Time) *cobra.Command {
	var flags dayFlags
	var offset int
	var prayers []string
	var lang string
	cmd := &cobra.Command{
		Use:   "alarms",
		Short: "Print the reminders that would be registered",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := flags.resolve(cmd, now())
			if err != nil {
				return err
			}
			if offset < 0 || offset > models.MaxOffsetMinutes {
				return fmt.Errorf("offset %d out of range [0, %d]", offset, models.MaxOffsetMinutes)
			}
			enabled := make(map[models.PrayerID]bool, len(prayers))
			for _, p := range prayers {
				id := models.PrayerID(strings.ToLower(strings.TrimSpace(p)))
				if !id.Alarmable() {
					return fmt.Errorf("%q cannot carry a reminder", p)
				}
				enabled[id] = true
			}

			ref := d.ref(now())
			events, err := schedule.Build(prayer.NewAstronomical(), d.city.Coords, d.method, d.date, ref)
			if err != nil {
				return err
			}
			alarms := alarm.Derive(events, enabled, offset, ref, locale.For(models.Language(lang)))

			out := cmd.OutOrStdout()
			if len(alarms) == 0 {
				fmt.Fprintln(out, "no reminders left for this day")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tFIRE AT\tPRAYER\tTITLE\tBODY")
			for _, a := range alarms {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", a.ID, a.FireAt.Format("15:04"), a.PrayerID, a.Title, a.Body)
			}
			return w.Flush()
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&offset, "offset", models.DefaultOffsetMinutes, "Minutes before each prayer")
	cmd.Flags().StringSliceVar(&prayers, "prayers", []string{"fajr", "dhuhr", "asr", "maghrib", "isha"}, "Prayers with a reminder")
	cmd.Flags().StringVar(&lang, "lang", string(models.LangEnglish), "Reminder language (en, ar)")
	return cmd
}

// --------------------------------------------------------------------------
// methods and cities commands
// --------------------------------------------------------------------------

func methodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "List calculation methods",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, m := range models.Methods {
				fmt.Fprintf(w, "%s\t%s\n", strings.ToLower(string(m)), m.Title())
			}
			return w.Flush()
		},
	}
}

func citiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cities [query]",
		Short: "Search the built-in city catalogue",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, c := range geocode.Catalog(query) {
				fmt.Fprintf(w, "%s\t%s\t%.4f\t%.4f\n", c.Name, c.Country, c.Coords.Latitude, c.Coords.Longitude)
			}
			return w.Flush()
		},
	}
}
