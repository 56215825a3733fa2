// Package campuswatch provides a campus security analysis pipeline: it loads
// incident and survey data, derives risk categories and time features, trains
// a high-risk classifier, and produces charts, prescriptions and a PDF report.
//
// Quick start:
//
//	a, err := campuswatch.New(
//	    campuswatch.WithIncidentsFile("data/crime_data.csv"),
//	    campuswatch.WithOutputDir("out"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := a.Run(context.Background())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.ReportPath)
//
// Missing input files are not an error: the pipeline falls back to a seeded
// synthetic dataset with the same schema, which makes the package usable as a
// demo without any data on disk.
package campuswatch
