package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"fli.dev/internal/models"
	"fli.dev/internal/registry"
	"fli.dev/internal/search"
	"fli.dev/internal/utils"
)

// tripOptions are the flags search and cheap share.
type tripOptions struct {
	seat  string
	stops string
}

func (o *tripOptions) register(flags *flag.FlagSet) {
	flags.StringVar(&o.seat, "seat", "ECONOMY", "Seat type (ECONOMY, PREMIUM_ECONOMY, BUSINESS, FIRST)")
	flags.StringVar(&o.stops, "stops", "ANY", "Maximum stops (ANY, NON_STOP, ONE_STOP, TWO_PLUS_STOPS, or 0, 1, 2)")
}

func (o *tripOptions) apply(c *models.Criteria) error {
	seat, err := models.ParseSeatType(o.seat)
	if err != nil {
		return err
	}
	stops, err := models.ParseMaxStops(o.stops)
	if err != nil {
		return err
	}
	c.SeatType = seat
	c.Stops = stops
	return nil
}

func resolveRoute(reg *registry.Registry, from, to string) (registry.Airport, registry.Airport, error) {
	dep, err := reg.Airport(utils.NormalizeCode(from))
	if err != nil {
		return registry.Airport{}, registry.Airport{}, err
	}
	arr, err := reg.Airport(utils.NormalizeCode(to))
	if err != nil {
		return registry.Airport{}, registry.Airport{}, err
	}
	return dep, arr, nil
}

func searchCommand(ctx context.Context, env *cliEnv, args []string) error {
	flags := env.newFlagSet("search")
	var trip tripOptions
	trip.register(flags)
	timeRange := flags.String("time", "", "Departure hour range in 24h format, e.g. 6-20")
	airlines := flags.String("airlines", "", "Comma separated airline codes, e.g. BA,KL")
	sortBy := flags.String("sort", "CHEAPEST", "Sort by (CHEAPEST, DURATION, DEPARTURE_TIME, ARRIVAL_TIME)")

	positional, err := parseArgs(flags, args)
	if err != nil {
		return err
	}
	if len(positional) != 3 {
		return fmt.Errorf("usage: fli search FROM TO DATE [flags]")
	}

	date, err := models.ParseDate(positional[2])
	if err != nil {
		return err
	}
	sort, err := models.ParseSortBy(*sortBy)
	if err != nil {
		return err
	}
	var earliest, latest int
	if *timeRange != "" {
		if earliest, latest, err = utils.ParseHourRange(*timeRange); err != nil {
			return err
		}
	}
	codes := utils.SplitList(strings.ToUpper(*airlines))
	for _, code := range codes {
		if err := utils.ValidateAirlineCode(code); err != nil {
			return err
		}
	}

	application, err := env.application(ctx, env.consoleLogger())
	if err != nil {
		return err
	}
	defer application.Close()

	dep, arr, err := resolveRoute(application.Registry, positional[0], positional[1])
	if err != nil {
		return err
	}
	filters := search.OneWay(dep, arr, date)
	filters.SortBy = sort
	if err := trip.apply(&filters.Criteria); err != nil {
		return err
	}

	results, err := application.Flights.Search(ctx, &filters)
	if err != nil {
		return err
	}
	if *timeRange != "" {
		results = search.FilterByDepartureHour(results, earliest, latest)
	}
	results = search.FilterByAirlines(results, codes...)
	if len(results) == 0 {
		fmt.Fprintln(env.stdout, "No flights found.")
		return errNoResults
	}

	return printFlights(env.stdout, results)
}

func cheapCommand(ctx context.Context, env *cliEnv, args []string) error {
	today := models.Today()

	flags := env.newFlagSet("cheap")
	var trip tripOptions
	trip.register(flags)
	from := flags.String("from", today.AddDays(1).String(), "Start date (YYYY-MM-DD)")
	to := flags.String("to", today.AddDays(60).String(), "End date (YYYY-MM-DD)")
	sortByPrice := flags.Bool("sort", false, "Sort results by price, lowest first")
	days := flags.String("days", "", "Only show these weekdays, e.g. mon,fri")

	positional, err := parseArgs(flags, args)
	if err != nil {
		return err
	}
	if len(positional) != 2 {
		return fmt.Errorf("usage: fli cheap FROM TO [flags]")
	}

	fromDate, err := models.ParseDate(*from)
	if err != nil {
		return fmt.Errorf("-from: %w", err)
	}
	toDate, err := models.ParseDate(*to)
	if err != nil {
		return fmt.Errorf("-to: %w", err)
	}
	weekdays, err := utils.ParseWeekdays(*days)
	if err != nil {
		return err
	}

	application, err := env.application(ctx, env.consoleLogger())
	if err != nil {
		return err
	}
	defer application.Close()

	dep, arr, err := resolveRoute(application.Registry, positional[0], positional[1])
	if err != nil {
		return err
	}
	filters := search.CheapestDates(dep, arr, fromDate, toDate)
	if err := trip.apply(&filters.Criteria); err != nil {
		return err
	}

	prices, err := application.Dates.Search(ctx, &filters)
	if err != nil {
		return err
	}
	if len(prices) == 0 {
		fmt.Fprintln(env.stdout, "No flights found for these dates.")
		return errNoResults
	}

	prices = search.FilterDatesByWeekday(prices, weekdays...)
	if len(prices) == 0 {
		fmt.Fprintln(env.stdout, "No flights found for the selected days.")
		return errNoResults
	}
	if *sortByPrice {
		prices = search.SortDatesByPrice(prices)
	}

	return printDates(env.stdout, prices)
}

func printFlights(w io.Writer, results []models.FlightResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PRICE\tDURATION\tSTOPS\tFLIGHT\tFROM\tTO\tDEPARTS\tARRIVES")
	for _, r := range results {
		for i, leg := range r.Legs {
			price, duration, stops := "", "", ""
			if i == 0 {
				price = fmt.Sprintf("$%.2f", r.Price)
				duration = formatMinutes(r.DurationMinutes)
				stops = fmt.Sprint(r.Stops)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s %s\t%s\t%s\t%s\t%s\n",
				price, duration, stops,
				leg.Airline.Code, leg.FlightNumber,
				leg.DepartureAirport.Code, leg.ArrivalAirport.Code,
				leg.DepartureTime.Format("2006-01-02 15:04"),
				leg.ArrivalTime.Format("2006-01-02 15:04"))
		}
	}
	return tw.Flush()
}

func printDates(w io.Writer, prices []models.DatePrice) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tDAY\tPRICE")
	for _, p := range prices {
		fmt.Fprintf(tw, "%s\t%s\t$%.2f\n", p.Date, p.Date.Weekday().String()[:3], p.Price)
	}
	return tw.Flush()
}

func formatMinutes(m int) string {
	return fmt.Sprintf("%dh %02dm", m/60, m%60)
}
