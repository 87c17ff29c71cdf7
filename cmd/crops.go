package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/distancia360/agroanalytics/internal/app"
	"github.com/distancia360/agroanalytics/internal/model"
	"github.com/distancia360/agroanalytics/internal/report"
)

var cropsTop int

var cropsCmd = &cobra.Command{
	Use:   "crops",
	Short: "Crop queries over closure and aptitude data",
}

// cropQuery builds a crops subcommand that loads the app and renders one
// report from it.
func cropQuery(use, short string, args cobra.PositionalArgs, build func(a *app.App, args []string) (*report.Report, error)) *cobra.Command {
	c := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context(), "query")
			if err != nil {
				return err
			}
			r, err := build(a, args)
			if err != nil {
				return err
			}
			return writeReport(cmd, r)
		},
	}
	addOutputFlags(c)
	return c
}

func municipalities(a *app.App, args []string) ([]model.MunicipalityID, error) {
	ids := make([]model.MunicipalityID, len(args))
	for i, arg := range args {
		id, err := a.Municipality(arg)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

var cropsGrownCmd = cropQuery("grown ID", "Crops with recorded closures in a municipality", cobra.ExactArgs(1),
	func(a *app.App, args []string) (*report.Report, error) {
		ids, err := municipalities(a, args)
		if err != nil {
			return nil, err
		}
		return report.Crops("Crops grown in "+a.Label(ids[0]), a.Crops.CropsGrown(ids[0])), nil
	})

var cropsSharedCmd = cropQuery("shared A B", "Crops grown in both municipalities", cobra.ExactArgs(2),
	func(a *app.App, args []string) (*report.Report, error) {
		ids, err := municipalities(a, args)
		if err != nil {
			return nil, err
		}
		title := fmt.Sprintf("Crops shared by %s and %s", a.Label(ids[0]), a.Label(ids[1]))
		return report.Crops(title, a.Crops.SharedCrops(ids[0], ids[1])), nil
	})

var cropsMissingCmd = cropQuery("missing BASE OTHER", "Crops grown in OTHER but not in BASE", cobra.ExactArgs(2),
	func(a *app.App, args []string) (*report.Report, error) {
		ids, err := municipalities(a, args)
		if err != nil {
			return nil, err
		}
		title := fmt.Sprintf("Crops grown in %s and missing in %s", a.Label(ids[1]), a.Label(ids[0]))
		return report.Crops(title, a.Crops.MissingCrops(ids[0], ids[1])), nil
	})

var cropsAptitudeCmd = cropQuery("aptitude ID CROP...", "Aptitude of a municipality for the given crops", cobra.MinimumNArgs(2),
	func(a *app.App, args []string) (*report.Report, error) {
		ids, err := municipalities(a, args[:1])
		if err != nil {
			return nil, err
		}
		crops := make([]model.CropID, 0, len(args)-1)
		for _, arg := range args[1:] {
			c, err := a.Crop(arg)
			if err != nil {
				return nil, err
			}
			crops = append(crops, c)
		}
		return report.Aptitudes("Aptitude of "+a.Label(ids[0]), a.Crops.AptitudeFor(ids[0], crops)), nil
	})

var cropsRecommendCmd = cropQuery("recommend ID", "Crops with the highest aptitude in a municipality", cobra.ExactArgs(1),
	func(a *app.App, args []string) (*report.Report, error) {
		ids, err := municipalities(a, args)
		if err != nil {
			return nil, err
		}
		return report.Aptitudes("Recommended crops for "+a.Label(ids[0]), a.Crops.RecommendBest(ids[0], cropsTop)), nil
	})

var cropsBestCmd = cropQuery("best CROP", "Municipalities with the highest aptitude for a crop", cobra.ExactArgs(1),
	func(a *app.App, args []string) (*report.Report, error) {
		c, err := a.Crop(args[0])
		if err != nil {
			return nil, err
		}
		title := "Best municipalities for " + a.Ref.CropName(c)
		return report.BestMunicipalities(title, a.Crops.BestMunicipalitiesFor(c, cropsTop)), nil
	})

var cropsProfileCmd = cropQuery("profile A B", "Compare the crops grown in two municipalities", cobra.ExactArgs(2),
	func(a *app.App, args []string) (*report.Report, error) {
		ids, err := municipalities(a, args)
		if err != nil {
			return nil, err
		}
		title := fmt.Sprintf("Crop profile of %s vs %s", a.Label(ids[0]), a.Label(ids[1]))
		return report.CropProfile(title, a.Crops.CompareCropProfile(ids[0], ids[1])), nil
	})

var cropsProductionCmd = cropQuery("production ID", "Yearly harvested volume of a municipality", cobra.ExactArgs(1),
	func(a *app.App, args []string) (*report.Report, error) {
		ids, err := municipalities(a, args)
		if err != nil {
			return nil, err
		}
		return report.AnnualProduction("Production of "+a.Label(ids[0]), a.Crops.AnnualProduction(ids[0])), nil
	})

var cropsProducersCmd = cropQuery("producers CROP", "Municipalities with the largest harvested volume of a crop", cobra.ExactArgs(1),
	func(a *app.App, args []string) (*report.Report, error) {
		c, err := a.Crop(args[0])
		if err != nil {
			return nil, err
		}
		return report.Producers("Top producers of "+a.Ref.CropName(c), a.Crops.TopProducers(c, cropsTop)), nil
	})

func init() {
	cropsCmd.PersistentFlags().IntVar(&cropsTop, "top", 0, "number of results for recommend, best and producers")
	cropsCmd.AddCommand(
		cropsGrownCmd,
		cropsSharedCmd,
		cropsMissingCmd,
		cropsAptitudeCmd,
		cropsRecommendCmd,
		cropsBestCmd,
		cropsProfileCmd,
		cropsProductionCmd,
		cropsProducersCmd,
	)
	rootCmd.AddCommand(cropsCmd)
}
