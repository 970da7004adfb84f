package services

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"epi-etl/batch"
	"epi-etl/extractors"
	"epi-etl/models"
	"epi-etl/transformers"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Archive legt die Quelldateien eines Laufs ab (siehe storage.Archiver).
type Archive interface {
	ArchiveRun(ctx context.Context, runID string, at time.Time, locations []string) error
}

// SourceReport fasst das Ergebnis einer Quelle in einem Lauf zusammen.
type SourceReport struct {
	Name          string `json:"name"`
	Disease       string `json:"disease"`
	Rows          int    `json:"rows"`
	Countries     int    `json:"countries"`
	Episodes      int    `json:"episodes"`
	Inserted      int    `json:"inserted"`
	Skipped       int    `json:"skipped"`
	BindingMisses int    `json:"binding_misses"`
	Error         string `json:"error,omitempty"`
}

// RunReport ist das Protokoll eines Pipeline-Laufs.
type RunReport struct {
	RunID      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Success    bool           `json:"success"`
	Sources    []SourceReport `json:"sources"`
	Error      string         `json:"error,omitempty"`
}

// Pipeline steuert einen vollständigen Lauf über alle Quellen.
type Pipeline struct {
	DB      *gorm.DB
	Logger  *zap.Logger
	Sources []Source
	Stages  []transformers.Transformer
	Archive Archive // optional
}

// NewPipeline erstellt eine Pipeline mit Cleaner und Aggregator als Stufen.
func NewPipeline(db *gorm.DB, logger *zap.Logger, sources []Source, archive Archive) *Pipeline {
	return &Pipeline{
		DB:      db,
		Logger:  logger,
		Sources: sources,
		Stages: []transformers.Transformer{
			transformers.NewCleaner(logger),
			transformers.NewAggregator(logger),
		},
		Archive: archive,
	}
}

// prepared ist eine Quelle nach Extraktion und Transformation.
type prepared struct {
	source   *Source
	report   *SourceReport
	batch    *batch.Batch
	groups   map[string][]Observation
	episodes map[string]uint
}

// Run führt einen Lauf aus und meldet, ob er vollständig erfolgreich war.
func (p *Pipeline) Run(ctx context.Context) bool {
	report, err := p.RunReport(ctx)
	if err != nil {
		return false
	}
	return report.Success
}

// RunReport führt einen Lauf aus. Der Fehler ist gesetzt, wenn der Lauf abgebrochen wurde;
// der Report ist immer gesetzt. Fällt nur eine Quelle aus, laufen die anderen weiter,
// der Lauf gilt aber als nicht erfolgreich.
func (p *Pipeline) RunReport(ctx context.Context) (*RunReport, error) {
	report := &RunReport{RunID: uuid.NewString(), StartedAt: time.Now().UTC()}
	log := p.Logger.With(zap.String("run_id", report.RunID))
	log.Info("Starte Pipeline-Lauf", zap.Int("sources", len(p.Sources)))

	err := p.run(ctx, log, report)
	report.FinishedAt = time.Now().UTC()
	report.Success = err == nil
	for _, s := range report.Sources {
		if s.Error != "" {
			report.Success = false
		}
	}
	if err != nil {
		report.Error = err.Error()
		log.Error("Pipeline-Lauf abgebrochen", zap.Error(err))
	}

	p.audit(ctx, log, report)

	if report.Success {
		runsTotal.WithLabelValues("success").Inc()
		lastSuccess.SetToCurrentTime()
		log.Info("Pipeline-Lauf erfolgreich", zap.Duration("duration", report.FinishedAt.Sub(report.StartedAt)))
	} else {
		runsTotal.WithLabelValues("failure").Inc()
		if err == nil {
			log.Warn("Pipeline-Lauf mit Fehlern in einzelnen Quellen beendet")
		}
	}
	return report, err
}

func (p *Pipeline) run(ctx context.Context, log *zap.Logger, report *RunReport) error {
	if err := SeedDiseases(ctx, p.DB, log); err != nil {
		return err
	}

	// Extraktion, Transformation und Länderauflösung; eine fehlerhafte Quelle wird verworfen
	report.Sources = make([]SourceReport, len(p.Sources))
	var ready []*prepared
	var lists [][]CountryCandidate
	for i := range p.Sources {
		src := &p.Sources[i]
		report.Sources[i] = SourceReport{Name: src.Name(), Disease: src.Disease}
		sr := &report.Sources[i]

		b, err := p.prepare(ctx, src)
		var candidates []CountryCandidate
		if err == nil {
			candidates, err = ResolveCountries(b, src.Countries)
		}
		if err != nil {
			sr.Error = err.Error()
			var schemaErr *extractors.SchemaError
			if errors.As(err, &schemaErr) {
				log.Error("Quelle verletzt Spaltenvertrag, wird übersprungen",
					zap.String("source", src.Name()), zap.String("column", schemaErr.Column), zap.Error(err))
			} else {
				log.Error("Quelle konnte nicht gelesen werden, wird übersprungen",
					zap.String("source", src.Name()), zap.Error(err))
			}
			continue
		}
		sr.Rows = b.Len()
		sr.Countries = len(candidates)
		ready = append(ready, &prepared{source: src, report: sr, batch: b})
		lists = append(lists, candidates)
	}

	if len(ready) == 0 {
		return nil
	}

	// Länder aller verbliebenen Quellen zusammenführen und abgleichen
	countryIDs, err := NewReconciler(p.DB, log).Reconcile(ctx, MergeCandidates(lists...))
	if err != nil {
		return err
	}

	diseases := make([]string, 0, len(ready))
	for _, pr := range ready {
		diseases = append(diseases, pr.source.Disease)
	}
	diseaseIDs, err := DiseaseIDs(ctx, p.DB, diseases...)
	if err != nil {
		return err
	}

	for _, pr := range ready {
		pr.groups = BuildObservations(pr.batch, pr.source.Stats)
	}
	if err := p.bind(ctx, log, ready, countryIDs, diseaseIDs); err != nil {
		return err
	}

	for _, pr := range ready {
		if err := p.load(ctx, log, pr); err != nil {
			return err
		}
	}

	p.archive(ctx, log, report, ready)
	return nil
}

// prepare liest eine Quelle und schickt sie durch alle Stufen.
func (p *Pipeline) prepare(ctx context.Context, src *Source) (*batch.Batch, error) {
	b, err := src.Extractor.Extract(ctx)
	if err != nil {
		return nil, err
	}
	for _, stage := range p.Stages {
		if b, err = stage.Transform(b, src.Columns); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// bind legt in einer Transaktion je (Land, Krankheit) eine Episode an oder übernimmt die vorhandene.
// Gruppen ohne abgeglichenes Land werden mit einer Warnung verworfen.
func (p *Pipeline) bind(ctx context.Context, log *zap.Logger, ready []*prepared, countryIDs, diseaseIDs map[string]uint) error {
	return p.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		binder := NewBinder(tx, log)
		for _, pr := range ready {
			name := pr.source.Name()
			diseaseID, ok := diseaseIDs[pr.source.Disease]
			if !ok {
				return eris.Errorf("disease %q of source %s is not seeded", pr.source.Disease, name)
			}

			countries := make([]string, 0, len(pr.groups))
			for c := range pr.groups {
				countries = append(countries, c)
			}
			sort.Strings(countries)

			pr.episodes = make(map[string]uint, len(countries))
			for _, country := range countries {
				countryID, ok := countryIDs[country]
				if !ok {
					log.Warn("Keine Episode für Statistik-Gruppe, wird verworfen",
						zap.String("source", name),
						zap.String("country", country),
						zap.String("disease", pr.source.Disease),
						zap.Int("observations", len(pr.groups[country])))
					pr.report.BindingMisses++
					bindingMisses.WithLabelValues(name).Inc()
					continue
				}
				episodeID, err := binder.Bind(ctx, countryID, diseaseID, FirstDate(pr.groups[country]))
				if err != nil {
					return eris.Wrapf(err, "bind %s/%s", country, pr.source.Disease)
				}
				pr.episodes[country] = episodeID
			}
			pr.report.Episodes = len(pr.episodes)
		}
		return nil
	})
}

// load schreibt die Statistiken jeder gebundenen Episode, eine Transaktion pro Episode.
func (p *Pipeline) load(ctx context.Context, log *zap.Logger, pr *prepared) error {
	name := pr.source.Name()
	loader := NewLoader(p.DB, log.With(zap.String("source", name)))

	countries := make([]string, 0, len(pr.episodes))
	for c := range pr.episodes {
		countries = append(countries, c)
	}
	sort.Strings(countries)

	for _, country := range countries {
		res, err := loader.LoadStatistics(ctx, pr.episodes[country], pr.groups[country])
		if err != nil {
			return eris.Wrapf(err, "load statistics %s/%s", country, pr.source.Disease)
		}
		pr.report.Inserted += res.Inserted
		pr.report.Skipped += res.Skipped
	}
	statisticsInserted.WithLabelValues(name).Add(float64(pr.report.Inserted))
	statisticsSkipped.WithLabelValues(name).Add(float64(pr.report.Skipped))
	log.Info("Statistiken geladen",
		zap.String("source", name),
		zap.Int("episodes", len(countries)),
		zap.Int("inserted", pr.report.Inserted),
		zap.Int("skipped", pr.report.Skipped))
	return nil
}

// audit schreibt den Lauf nach import_runs. Fehler werden nur geloggt.
func (p *Pipeline) audit(ctx context.Context, log *zap.Logger, report *RunReport) {
	summary, err := json.Marshal(report)
	if err != nil {
		log.Warn("Run summary could not be encoded", zap.Error(err))
		return
	}
	finished := report.FinishedAt
	run := models.ImportRun{
		RunID:      report.RunID,
		StartedAt:  report.StartedAt,
		FinishedAt: &finished,
		Success:    report.Success,
		Summary:    datatypes.JSON(summary),
	}
	if err := p.DB.WithContext(ctx).Create(&run).Error; err != nil {
		log.Warn("Failed to write import run", zap.Error(err))
	}
}

// archive legt die gelesenen Quellen im Bucket ab. Fehler werden nur geloggt.
func (p *Pipeline) archive(ctx context.Context, log *zap.Logger, report *RunReport, ready []*prepared) {
	if p.Archive == nil || len(ready) == 0 {
		return
	}
	locations := make([]string, 0, len(ready))
	for _, pr := range ready {
		locations = append(locations, pr.source.Location)
	}
	if err := p.Archive.ArchiveRun(ctx, report.RunID, report.StartedAt, locations); err != nil {
		log.Warn("Archivierung der Quellen fehlgeschlagen", zap.Error(err))
	}
}
