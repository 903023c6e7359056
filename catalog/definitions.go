/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package catalog

import "github.com/humaidq/labwave/models"

const (
	pediatric = models.AgePediatric
	adult     = models.AgeAdult
	middleAge = models.AgeMiddleAge
	senior    = models.AgeSenior
)

// ptr is a helper to create pointers to float64 literals
func ptr(f float64) *float64 {
	return &f
}

func rng(low, high float64) Range { return Range{Low: ptr(low), High: ptr(high)} }
func upTo(high float64) Range     { return Range{High: ptr(high)} }
func atLeast(low float64) Range   { return Range{Low: ptr(low)} }

func names(en, ru string) map[string]string {
	return map[string]string{"en": en, "ru": ru}
}

// always is a single rule that needs neither age nor sex.
func always(r Range) []RangeRule {
	return []RangeRule{{AgeRange: models.AgeAny, Gender: models.GenderUnisex, Low: r.Low, High: r.High}}
}

// byAge builds unisex rules for the four age groups.
func byAge(ped, adultRange, mid, sen Range) []RangeRule {
	return []RangeRule{
		{AgeRange: pediatric, Gender: models.GenderUnisex, Low: ped.Low, High: ped.High},
		{AgeRange: adult, Gender: models.GenderUnisex, Low: adultRange.Low, High: adultRange.High},
		{AgeRange: middleAge, Gender: models.GenderUnisex, Low: mid.Low, High: mid.High},
		{AgeRange: senior, Gender: models.GenderUnisex, Low: sen.Low, High: sen.High},
	}
}

// unisexAt builds one unisex rule for an age group.
func unisexAt(age models.AgeRange, r Range) []RangeRule {
	return []RangeRule{{AgeRange: age, Gender: models.GenderUnisex, Low: r.Low, High: r.High}}
}

// bySex builds the male and female rules for an age group.
func bySex(age models.AgeRange, male, female Range) []RangeRule {
	return []RangeRule{
		{AgeRange: age, Gender: models.GenderMale, Low: male.Low, High: male.High},
		{AgeRange: age, Gender: models.GenderFemale, Low: female.Low, High: female.High},
	}
}

func rules(groups ...[]RangeRule) []RangeRule {
	var out []RangeRule
	for _, g := range groups {
		out = append(out, g...)
	}

	return out
}

var (
	cholesterolMmol = Unit{Symbol: "mmol/L", Factor: 38.67}
	enzymeKatal     = Unit{Symbol: "ukat/L", Factor: 60}
	gramsPerLitre   = Unit{Symbol: "g/L", Factor: 0.1}
	bilirubinMicro  = Unit{Symbol: "umol/L", Factor: 0.05848}
	pounds          = Unit{Symbol: "lb", Factor: 0.45359237}
	kilojoules      = Unit{Symbol: "kJ", Factor: 0.239006}
)

// Definitions returns every built-in biomarker. This is the authoritative
// source of truth for codes, synonyms, units and reference ranges.
func Definitions() []Biomarker {
	return []Biomarker{
		// ===== BLOOD COUNTS =====
		{
			Code: "WBC", Names: names("White blood cells", "Лейкоциты"), Category: CategoryBloodCounts,
			Unit:     "10^3/uL",
			Synonyms: []string{"WBC count", "Leukocytes", "White blood cell count", "Total leukocyte count", "TLC"},
			Ranges:   byAge(rng(4.5, 13.0), rng(4.5, 11.0), rng(4.5, 11.0), rng(4.0, 10.5)),
		},
		{
			Code: "RBC", Names: names("Red blood cells", "Эритроциты"), Category: CategoryBloodCounts,
			Unit:     "10^6/uL",
			Synonyms: []string{"RBC count", "Erythrocytes", "Red blood cell count"},
			Ranges: rules(
				unisexAt(pediatric, rng(4.0, 5.5)),
				bySex(adult, rng(4.35, 5.65), rng(3.92, 5.13)),
				bySex(middleAge, rng(4.30, 5.60), rng(3.90, 5.10)),
				bySex(senior, rng(4.20, 5.50), rng(3.80, 5.00)),
			),
		},
		{
			Code: "HGB", Names: names("Hemoglobin", "Гемоглобин"), Category: CategoryBloodCounts,
			Unit:     "g/dL",
			Synonyms: []string{"Haemoglobin", "Hb", "Hgb"},
			Units:    []Unit{gramsPerLitre, {Symbol: "mmol/L", Factor: 1.611}},
			Ranges: rules(
				unisexAt(pediatric, rng(10.0, 15.5)),
				bySex(adult, rng(13.2, 16.6), rng(11.6, 15.0)),
				bySex(middleAge, rng(13.0, 16.5), rng(11.5, 14.8)),
				bySex(senior, rng(12.4, 16.0), rng(11.7, 14.5)),
			),
		},
		{
			Code: "HCT", Names: names("Hematocrit", "Гематокрит"), Category: CategoryBloodCounts,
			Unit:     "%",
			Synonyms: []string{"Haematocrit", "Hct", "PCV", "Packed cell volume"},
			Units:    []Unit{{Symbol: "L/L", Factor: 100}},
			Ranges: rules(
				unisexAt(pediatric, rng(31.0, 45.0)),
				bySex(adult, rng(41.0, 50.0), rng(36.0, 44.0)),
				bySex(middleAge, rng(40.0, 50.0), rng(36.0, 44.0)),
				bySex(senior, rng(38.0, 49.0), rng(35.0, 43.0)),
			),
		},
		{
			Code: "MCV", Names: names("Mean corpuscular volume", "Средний объем эритроцита"), Category: CategoryBloodCounts,
			Unit:     "fL",
			Synonyms: []string{"M.C.V"},
			Ranges:   byAge(rng(78.0, 95.0), rng(80.0, 96.0), rng(80.0, 96.0), rng(80.0, 96.0)),
		},
		{
			Code: "MCH", Names: names("Mean corpuscular hemoglobin", "Среднее содержание гемоглобина в эритроците"), Category: CategoryBloodCounts,
			Unit:     "pg",
			Synonyms: []string{"M.C.H"},
			Ranges:   always(rng(27.0, 33.0)),
		},
		{
			Code: "MCHC", Names: names("Mean corpuscular hemoglobin concentration", "Средняя концентрация гемоглобина в эритроците"), Category: CategoryBloodCounts,
			Unit:     "g/dL",
			Synonyms: []string{"M.C.H.C"},
			Units:    []Unit{gramsPerLitre},
			Ranges:   always(rng(33.0, 36.0)),
		},
		{
			Code: "RDW", Names: names("Red cell distribution width", "Ширина распределения эритроцитов"), Category: CategoryBloodCounts,
			Unit:     "%",
			Synonyms: []string{"RDW - CV", "RDW-CV", "RDWCV"},
			Ranges:   always(rng(11.5, 14.5)),
		},
		{
			Code: "PLT", Names: names("Platelets", "Тромбоциты"), Category: CategoryBloodCounts,
			Unit:     "10^3/uL",
			Synonyms: []string{"Platelet count", "Thrombocytes"},
			Ranges:   byAge(rng(150.0, 450.0), rng(150.0, 450.0), rng(150.0, 450.0), rng(140.0, 400.0)),
		},
		{
			Code: "MPV", Names: names("Mean platelet volume", "Средний объем тромбоцитов"), Category: CategoryBloodCounts,
			Unit:     "fL",
			Synonyms: []string{"M.P.V"},
			Ranges:   always(rng(7.5, 11.5)),
		},
		{
			Code: "NEUT_PCT", Names: names("Neutrophils", "Нейтрофилы"), Category: CategoryBloodCounts,
			Unit:     "%",
			Synonyms: []string{"Neutrophils %", "Neutrophil percentage", "NEUT%"},
			Ranges:   always(rng(40.0, 70.0)),
		},
		{
			Code: "NEUT_ABS", Names: names("Neutrophils (Absolute)", "Нейтрофилы абс"), Category: CategoryBloodCounts,
			Unit:     "10^3/uL",
			Synonyms: []string{"Absolute neutrophils", "Absolute neutrophil count", "ANC"},
			Ranges:   always(rng(1.8, 7.8)),
		},
		{
			Code: "LYMPH_PCT", Names: names("Lymphocytes", "Лимфоциты"), Category: CategoryBloodCounts,
			Unit:     "%",
			Synonyms: []string{"Lymphocytes %", "Lymphocyte percentage", "Lymphocyte percent", "LYM%"},
			Ranges:   always(rng(20.0, 40.0)),
		},
		{
			Code: "LYMPH_ABS", Names: names("Lymphocytes (Absolute)", "Лимфоциты абс"), Category: CategoryBloodCounts,
			Unit:     "10^3/uL",
			Synonyms: []string{"Absolute lymphocytes", "Absolute lymphocyte count", "ALC"},
			Ranges:   always(rng(1.0, 4.8)),
		},
		{
			Code: "MONO_PCT", Names: names("Monocytes", "Моноциты"), Category: CategoryBloodCounts,
			Unit:     "%",
			Synonyms: []string{"Monocytes %", "MON%"},
			Ranges:   always(rng(2.0, 8.0)),
		},
		{
			Code: "EOS_PCT", Names: names("Eosinophils", "Эозинофилы"), Category: CategoryBloodCounts,
			Unit:     "%",
			Synonyms: []string{"Eosinophils %", "EOS%"},
			Ranges:   always(rng(1.0, 4.0)),
		},
		{
			Code: "BASO_PCT", Names: names("Basophils", "Базофилы"), Category: CategoryBloodCounts,
			Unit:     "%",
			Synonyms: []string{"Basophils %", "BAS%"},
			Ranges:   always(rng(0.5, 1.0)),
		},

		// ===== LIPID PANEL (mg/dL) =====
		{
			Code: "TC", Names: names("Total Cholesterol", "Холестерин общий"), Category: CategoryLipidPanel,
			Unit:     "mg/dL",
			Synonyms: []string{"Cholesterol", "Cholesterol total", "CHOL", "Общий холестерин", "Холестерин"},
			Units:    []Unit{cholesterolMmol},
			Ranges:   always(upTo(200.0)),
		},
		{
			Code: "LDL", Names: names("LDL Cholesterol", "ЛПНП"), Category: CategoryLipidPanel,
			Unit:     "mg/dL",
			Synonyms: []string{"LDL-C", "LDL direct", "Low density lipoprotein", "Холестерин ЛПНП"},
			Units:    []Unit{cholesterolMmol},
			Ranges:   byAge(upTo(110.0), upTo(100.0), upTo(100.0), upTo(100.0)),
		},
		{
			Code: "HDL", Names: names("HDL Cholesterol", "ЛПВП"), Category: CategoryLipidPanel,
			Unit:     "mg/dL",
			Synonyms: []string{"HDL-C", "High density lipoprotein", "Холестерин ЛПВП"},
			Units:    []Unit{cholesterolMmol},
			Ranges: rules(
				unisexAt(pediatric, atLeast(40.0)),
				bySex(adult, atLeast(40.0), atLeast(50.0)),
				bySex(middleAge, atLeast(40.0), atLeast(50.0)),
				bySex(senior, atLeast(40.0), atLeast(50.0)),
			),
		},
		{
			Code: "TG", Names: names("Triglycerides", "Триглицериды"), Category: CategoryLipidPanel,
			Unit:     "mg/dL",
			Synonyms: []string{"Triglyceride", "TRIG", "Триглицерид"},
			Units:    []Unit{{Symbol: "mmol/L", Factor: 88.57}},
			Ranges:   always(upTo(150.0)),
		},
		{
			Code: "NON_HDL", Names: names("Non-HDL Cholesterol", "Холестерин не-ЛПВП"), Category: CategoryLipidPanel,
			Unit:     "mg/dL",
			Synonyms: []string{"Non HDL-C"},
			Units:    []Unit{cholesterolMmol},
			Ranges:   always(upTo(130.0)),
		},
		{
			Code: "APOB", Names: names("Apolipoprotein B", "Аполипопротеин B"), Category: CategoryLipidPanel,
			Unit:     "mg/dL",
			Synonyms: []string{"Apo B", "ApoB-100"},
			Units:    []Unit{{Symbol: "g/L", Factor: 100}},
			Ranges:   always(upTo(90.0)),
		},
		{
			Code: "TG_HDL", Names: names("TG/HDL (Calc)", "ТГ/ЛПВП"), Category: CategoryLipidPanel,
			Unit:     "ratio",
			Synonyms: []string{"Triglyceride HDL ratio", "TG to HDL ratio"},
			Ranges:   always(upTo(3.0)),
		},
		{
			Code: "ATHERO_COEF", Names: names("Atherogenic Coefficient", "Коэффициент атерогенности"), Category: CategoryLipidPanel,
			Unit:     "ratio",
			Synonyms: []string{"Atherogenic index", "КА"},
			Ranges:   always(upTo(3.0)),
		},

		// ===== METABOLIC =====
		{
			Code: "GLU", Names: names("Glucose", "Глюкоза"), Category: CategoryMetabolic,
			Unit:     "mg/dL",
			Synonyms: []string{"Glucose fasting FBS", "Fasting glucose", "Blood glucose", "FBS", "FBG", "Глюкоза натощак", "Глюкоза крови"},
			Units:    []Unit{{Symbol: "mmol/L", Factor: 18.016}},
			Ranges:   byAge(rng(70.0, 100.0), rng(70.0, 99.0), rng(70.0, 99.0), rng(70.0, 99.0)),
		},
		{
			Code: "HBA1C", Names: names("Haemoglobin HbA1c", "Гликированный гемоглобин"), Category: CategoryMetabolic,
			Unit:     "%",
			Synonyms: []string{"HbA1c", "Hemoglobin A1c", "Glycated hemoglobin", "A1C", "Гликозилированный гемоглобин"},
			Units:    []Unit{{Symbol: "mmol/mol", Factor: 0.0915, Offset: 2.15}},
			Ranges:   always(upTo(5.7)),
		},
		{
			Code: "CREAT", Names: names("Creatinine", "Креатинин"), Category: CategoryMetabolic,
			Unit:     "mg/dL",
			Synonyms: []string{"Serum creatinine", "CREA", "Креатинин сыворотки"},
			Units:    []Unit{{Symbol: "umol/L", Factor: 1 / 88.42}},
			Ranges: rules(
				unisexAt(pediatric, rng(0.3, 0.7)),
				bySex(adult, rng(0.74, 1.35), rng(0.59, 1.04)),
				bySex(middleAge, rng(0.74, 1.35), rng(0.59, 1.04)),
				bySex(senior, rng(0.70, 1.30), rng(0.59, 1.04)),
			),
		},
		{
			Code: "EGFR", Names: names("eGFR", "СКФ"), Category: CategoryMetabolic,
			Unit:     "mL/min/1.73m2",
			Synonyms: []string{"Estimated GFR", "Glomerular filtration rate", "eGFR CKD-EPI", "Скорость клубочковой фильтрации"},
			Ranges:   always(atLeast(90.0)),
		},
		{
			Code: "BUN", Names: names("Urea nitrogen", "Мочевина"), Category: CategoryMetabolic,
			Unit:     "mg/dL",
			Synonyms: []string{"Blood urea nitrogen", "Urea", "Urea nitrogen blood"},
			Units:    []Unit{{Symbol: "mmol/L", Factor: 2.8}},
			Ranges:   always(rng(7.0, 20.0)),
		},
		{
			Code: "URIC", Names: names("Uric Acid", "Мочевая кислота"), Category: CategoryMetabolic,
			Unit:     "umol/L",
			Synonyms: []string{"Urate", "Serum uric acid"},
			Units:    []Unit{{Symbol: "mg/dL", Factor: 59.48}},
			Ranges: rules(
				unisexAt(pediatric, rng(120.0, 330.0)),
				bySex(adult, rng(200.0, 420.0), rng(140.0, 360.0)),
				bySex(middleAge, rng(200.0, 420.0), rng(140.0, 360.0)),
				bySex(senior, rng(210.0, 440.0), rng(140.0, 360.0)),
			),
		},
		{
			Code: "CA", Names: names("Calcium", "Кальций"), Category: CategoryMetabolic,
			Unit:     "mmol/L",
			Synonyms: []string{"Total calcium", "Serum calcium", "Кальций общий"},
			Units:    []Unit{{Symbol: "mg/dL", Factor: 0.2495}},
			Ranges:   byAge(rng(2.20, 2.70), rng(2.15, 2.55), rng(2.15, 2.55), rng(2.15, 2.55)),
		},
		{
			Code: "HCO3", Names: names("Bicarbonate", "Бикарбонат"), Category: CategoryMetabolic,
			Unit:     "mmol/L",
			Synonyms: []string{"CO2", "Total CO2", "Carbon dioxide"},
			Units:    []Unit{{Symbol: "mEq/L", Factor: 1}},
			Ranges:   byAge(rng(18.0, 25.0), rng(22.0, 29.0), rng(22.0, 29.0), rng(22.0, 29.0)),
		},
		{
			Code: "NA", Names: names("Sodium", "Натрий"), Category: CategoryMetabolic,
			Unit:     "mmol/L",
			Synonyms: []string{"Serum sodium"},
			Units:    []Unit{{Symbol: "mEq/L", Factor: 1}},
			Ranges:   always(rng(136.0, 145.0)),
		},
		{
			Code: "K", Names: names("Potassium", "Калий"), Category: CategoryMetabolic,
			Unit:     "mmol/L",
			Synonyms: []string{"Serum potassium"},
			Units:    []Unit{{Symbol: "mEq/L", Factor: 1}},
			Ranges:   always(rng(3.5, 5.1)),
		},
		{
			Code: "CL", Names: names("Chloride", "Хлор"), Category: CategoryMetabolic,
			Unit:     "mmol/L",
			Synonyms: []string{"Serum chloride", "Хлориды"},
			Units:    []Unit{{Symbol: "mEq/L", Factor: 1}},
			Ranges:   always(rng(98.0, 107.0)),
		},
		{
			Code: "CRP", Names: names("C-reactive protein", "С-реактивный белок"), Category: CategoryMetabolic,
			Unit:     "mg/L",
			Synonyms: []string{"hs-CRP", "hsCRP", "High sensitivity CRP", "СРБ"},
			Units:    []Unit{{Symbol: "mg/dL", Factor: 10}},
			Ranges:   always(upTo(3.0)),
		},

		// ===== LIVER FUNCTION =====
		{
			Code: "ALT", Names: names("SGPT (ALT), Serum", "АЛТ"), Category: CategoryLiverFunction,
			Unit:     "U/L",
			Synonyms: []string{"Alanine aminotransferase", "SGPT", "ALAT", "Аланинаминотрансфераза"},
			Units:    []Unit{enzymeKatal},
			Ranges: rules(
				bySex(pediatric, rng(10.0, 35.0), rng(10.0, 30.0)),
				bySex(adult, rng(10.0, 50.0), rng(10.0, 35.0)),
				bySex(middleAge, rng(10.0, 50.0), rng(10.0, 35.0)),
				bySex(senior, rng(10.0, 50.0), rng(10.0, 35.0)),
			),
		},
		{
			Code: "AST", Names: names("SGOT (AST)", "АСТ"), Category: CategoryLiverFunction,
			Unit:     "U/L",
			Synonyms: []string{"Aspartate aminotransferase", "SGOT", "ASAT", "Аспартатаминотрансфераза"},
			Units:    []Unit{enzymeKatal},
			Ranges: rules(
				unisexAt(pediatric, rng(15.0, 50.0)),
				bySex(adult, rng(10.0, 40.0), rng(10.0, 35.0)),
				bySex(middleAge, rng(10.0, 40.0), rng(10.0, 35.0)),
				bySex(senior, rng(10.0, 40.0), rng(10.0, 35.0)),
			),
		},
		{
			Code: "GGT", Names: names("Gamma-glutamyl transferase", "ГГТ"), Category: CategoryLiverFunction,
			Unit:     "U/L",
			Synonyms: []string{"Gamma GT", "GGTP", "Гамма-ГТ"},
			Units:    []Unit{enzymeKatal},
			Ranges: rules(
				bySex(pediatric, rng(10.0, 71.0), rng(6.0, 42.0)),
				bySex(adult, rng(10.0, 71.0), rng(6.0, 42.0)),
				bySex(middleAge, rng(10.0, 71.0), rng(6.0, 42.0)),
				bySex(senior, rng(10.0, 71.0), rng(6.0, 42.0)),
			),
		},
		{
			Code: "ALP", Names: names("Alkaline Phosphatase (ALP)", "Щелочная фосфатаза"), Category: CategoryLiverFunction,
			Unit:     "U/L",
			Synonyms: []string{"Alkaline phosphatase", "Alk phos", "ЩФ"},
			Units:    []Unit{enzymeKatal},
			Ranges:   byAge(rng(100.0, 500.0), rng(40.0, 130.0), rng(40.0, 130.0), rng(40.0, 130.0)),
		},
		{
			Code: "TBIL", Names: names("Bilirubin Total", "Билирубин общий"), Category: CategoryLiverFunction,
			Unit:     "mg/dL",
			Synonyms: []string{"Total bilirubin", "T. Bilirubin", "Общий билирубин"},
			Units:    []Unit{bilirubinMicro},
			Ranges:   always(rng(0.3, 1.2)),
		},
		{
			Code: "DBIL", Names: names("Bilirubin Direct", "Билирубин прямой"), Category: CategoryLiverFunction,
			Unit:     "mg/dL",
			Synonyms: []string{"Direct bilirubin", "Conjugated bilirubin", "Прямой билирубин"},
			Units:    []Unit{bilirubinMicro},
			Ranges:   always(upTo(0.3)),
		},
		{
			Code: "IBIL", Names: names("Bilirubin Indirect", "Билирубин непрямой"), Category: CategoryLiverFunction,
			Unit:     "mg/dL",
			Synonyms: []string{"Indirect bilirubin", "Unconjugated bilirubin", "Непрямой билирубин"},
			Units:    []Unit{bilirubinMicro},
			Ranges:   always(rng(0.2, 0.8)),
		},
		{
			Code: "ALB", Names: names("Albumin", "Альбумин"), Category: CategoryLiverFunction,
			Unit:     "g/dL",
			Synonyms: []string{"Serum albumin"},
			Units:    []Unit{gramsPerLitre},
			Ranges:   byAge(rng(3.5, 5.0), rng(3.5, 5.2), rng(3.5, 5.2), rng(3.2, 4.8)),
		},
		{
			Code: "GLOB", Names: names("Globulin", "Глобулин"), Category: CategoryLiverFunction,
			Unit:     "g/dL",
			Synonyms: []string{"Serum globulin", "Глобулины"},
			Units:    []Unit{gramsPerLitre},
			Ranges:   always(rng(2.0, 3.5)),
		},
		{
			Code: "TP", Names: names("Total Protein", "Общий белок"), Category: CategoryLiverFunction,
			Unit:     "g/dL",
			Synonyms: []string{"Protein total", "Serum total protein", "Белок общий"},
			Units:    []Unit{gramsPerLitre},
			Ranges:   always(rng(6.4, 8.3)),
		},

		// ===== VITAMINS & MINERALS =====
		{
			Code: "VITD", Names: names("Vitamin D", "Витамин D"), Category: CategoryVitaminsMinerals,
			Unit:     "nmol/L",
			Synonyms: []string{"25-OH Vitamin D", "25-hydroxyvitamin D", "Vitamin D3", "25(OH)D", "Витамин D3", "25-OH витамин D"},
			Units:    []Unit{{Symbol: "ng/mL", Factor: 2.496}},
			Ranges:   always(rng(75.0, 250.0)),
		},
		{
			Code: "B12", Names: names("Vitamin B12", "Витамин B12"), Category: CategoryVitaminsMinerals,
			Unit:     "pmol/L",
			Synonyms: []string{"Cobalamin", "Cyanocobalamin", "Кобаламин"},
			Units:    []Unit{{Symbol: "pg/mL", Factor: 0.7378}},
			Ranges:   always(rng(150.0, 650.0)),
		},
		{
			Code: "MG", Names: names("Magnesium, Serum", "Магний"), Category: CategoryVitaminsMinerals,
			Unit:     "mmol/L",
			Synonyms: []string{"Magnesium", "Serum magnesium"},
			Units:    []Unit{{Symbol: "mg/dL", Factor: 0.4114}},
			Ranges:   always(rng(0.65, 1.05)),
		},
		{
			Code: "FE", Names: names("Iron, Serum", "Железо"), Category: CategoryVitaminsMinerals,
			Unit:     "umol/L",
			Synonyms: []string{"Iron", "Serum iron", "Железо сывороточное"},
			Units:    []Unit{{Symbol: "ug/dL", Factor: 0.1791}},
			Ranges: rules(
				bySex(pediatric, rng(11.0, 28.0), rng(6.6, 26.0)),
				bySex(adult, rng(11.0, 28.0), rng(6.6, 26.0)),
				bySex(middleAge, rng(11.0, 28.0), rng(6.6, 26.0)),
				bySex(senior, rng(11.0, 28.0), rng(6.6, 26.0)),
			),
		},
		{
			Code: "FERRITIN", Names: names("Ferritin", "Ферритин"), Category: CategoryVitaminsMinerals,
			Unit:     "ng/mL",
			Synonyms: []string{"Serum ferritin"},
			Units:    []Unit{{Symbol: "ug/L", Factor: 1}},
			Ranges: rules(
				bySex(pediatric, rng(24.0, 336.0), rng(11.0, 307.0)),
				bySex(adult, rng(24.0, 336.0), rng(11.0, 307.0)),
				bySex(middleAge, rng(24.0, 336.0), rng(11.0, 307.0)),
				bySex(senior, rng(24.0, 336.0), rng(11.0, 307.0)),
			),
		},
		{
			Code: "ZN", Names: names("Zinc", "Цинк"), Category: CategoryVitaminsMinerals,
			Unit:     "umol/L",
			Synonyms: []string{"Serum zinc"},
			Units:    []Unit{{Symbol: "ug/dL", Factor: 0.153}},
			Ranges:   always(rng(10.0, 18.0)),
		},

		// ===== ENDOCRINE & OTHER =====
		{
			Code: "TSH", Names: names("TSH", "ТТГ"), Category: CategoryEndocrineOther,
			Unit:     "uIU/mL",
			Synonyms: []string{"Thyroid stimulating hormone", "Thyrotropin", "Тиреотропный гормон"},
			Ranges:   byAge(rng(0.7, 6.0), rng(0.40, 4.50), rng(0.40, 4.50), rng(0.40, 5.80)),
		},
		{
			Code: "ESR", Names: names("ESR", "СОЭ"), Category: CategoryEndocrineOther,
			Unit:     "mm/h",
			Synonyms: []string{"Erythrocyte sedimentation rate", "Sed rate", "Скорость оседания эритроцитов"},
			Ranges: rules(
				unisexAt(pediatric, rng(0.0, 10.0)),
				bySex(adult, rng(0.0, 15.0), rng(0.0, 20.0)),
				bySex(middleAge, rng(0.0, 20.0), rng(0.0, 30.0)),
				bySex(senior, rng(0.0, 30.0), rng(0.0, 40.0)),
			),
		},

		// ===== VITALS =====
		{
			Code: "HR", Names: names("Heart rate", "Пульс"), Category: CategoryVitals,
			Unit:     "bpm",
			Synonyms: []string{"Pulse", "Average heart rate", "ЧСС"},
			Ranges:   always(rng(60.0, 100.0)),
		},
		{
			Code: "RHR", Names: names("Resting heart rate", "Пульс в покое"), Category: CategoryVitals,
			Unit:     "bpm",
			Synonyms: []string{"Resting HR", "Resting pulse", "ЧСС в покое"},
			Ranges:   always(rng(50.0, 80.0)),
		},
		{
			Code: "HRV", Names: names("Heart rate variability", "Вариабельность сердечного ритма"), Category: CategoryVitals,
			Unit:     "ms",
			Synonyms: []string{"HRV SDNN", "HRV RMSSD", "ВСР"},
		},
		{
			Code: "RESP_RATE", Names: names("Respiratory rate", "Частота дыхания"), Category: CategoryVitals,
			Unit:     "breaths/min",
			Synonyms: []string{"Breathing rate", "ЧД"},
			Ranges:   always(rng(12.0, 20.0)),
		},
		{
			Code: "SPO2", Names: names("Oxygen saturation", "Сатурация"), Category: CategoryVitals,
			Unit:     "%",
			Synonyms: []string{"SpO2 average", "Blood oxygen", "Сатурация кислорода"},
			Ranges:   always(rng(95.0, 100.0)),
		},
		{
			Code: "TEMP", Names: names("Body temperature", "Температура тела"), Category: CategoryVitals,
			Unit:     "°C",
			Synonyms: []string{"Temperature", "Skin temperature", "Температура"},
			Units:    []Unit{{Symbol: "°F", Factor: 5.0 / 9.0, Offset: -160.0 / 9.0}},
			Ranges:   always(rng(36.1, 37.2)),
		},
		{
			Code: "SBP", Names: names("Systolic blood pressure", "Систолическое давление"), Category: CategoryVitals,
			Unit:     "mmHg",
			Synonyms: []string{"Systolic", "Blood pressure systolic", "САД"},
			Ranges:   always(rng(90.0, 120.0)),
		},
		{
			Code: "DBP", Names: names("Diastolic blood pressure", "Диастолическое давление"), Category: CategoryVitals,
			Unit:     "mmHg",
			Synonyms: []string{"Diastolic", "Blood pressure diastolic", "ДАД"},
			Ranges:   always(rng(60.0, 80.0)),
		},

		// ===== ACTIVITY =====
		{
			Code: "STEPS", Names: names("Steps", "Шаги"), Category: CategoryActivity,
			Unit:     "steps",
			Synonyms: []string{"Step count", "Daily steps", "Количество шагов"},
			Ranges:   always(atLeast(7000.0)),
		},
		{
			Code: "CALORIES", Names: names("Active energy", "Активные калории"), Category: CategoryActivity,
			Unit:     "kcal",
			Synonyms: []string{"Active calories", "Active energy burned", "Calories burned"},
			Units:    []Unit{kilojoules},
		},
		{
			Code: "BMR_DAILY", Names: names("Basal energy", "Основной обмен"), Category: CategoryActivity,
			Unit:     "kcal",
			Synonyms: []string{"Basal energy burned", "Resting energy", "BMR"},
			Units:    []Unit{kilojoules},
		},
		{
			Code: "DISTANCE", Names: names("Walking and running distance", "Дистанция"), Category: CategoryActivity,
			Unit:     "km",
			Synonyms: []string{"Distance", "Distance walking running"},
			Units:    []Unit{{Symbol: "mi", Factor: 1.609344}, {Symbol: "m", Factor: 0.001}},
		},

		// ===== BODY COMPOSITION =====
		{
			Code: "WEIGHT", Names: names("Body weight", "Вес"), Category: CategoryBodyComposition,
			Unit:     "kg",
			Synonyms: []string{"Weight", "Body mass", "Масса тела"},
			Units:    []Unit{pounds, {Symbol: "g", Factor: 0.001}},
		},
		{
			Code: "HEIGHT", Names: names("Height", "Рост"), Category: CategoryBodyComposition,
			Unit:     "cm",
			Synonyms: []string{"Body height", "Stature"},
			Units: []Unit{
				{Symbol: "m", Factor: 100},
				{Symbol: "mm", Factor: 0.1},
				{Symbol: "in", Factor: 2.54},
				{Symbol: "ft", Factor: 30.48},
			},
		},
		{
			Code: "BMI", Names: names("Body mass index", "Индекс массы тела"), Category: CategoryBodyComposition,
			Unit:     "kg/m2",
			Synonyms: []string{"ИМТ"},
			Ranges:   always(rng(18.5, 24.9)),
		},
		{
			Code: "BFAT_PCT", Names: names("Body fat percentage", "Процент жира"), Category: CategoryBodyComposition,
			Unit:     "%",
			Synonyms: []string{"Body fat", "PBF", "Percent body fat", "Процент жира в организме"},
			Ranges: rules(
				bySex(adult, rng(10.0, 20.0), rng(18.0, 28.0)),
				bySex(middleAge, rng(11.0, 22.0), rng(20.0, 30.0)),
				bySex(senior, rng(13.0, 25.0), rng(22.0, 32.0)),
			),
		},
		{
			Code: "LBM", Names: names("Lean body mass", "Безжировая масса"), Category: CategoryBodyComposition,
			Unit:     "kg",
			Synonyms: []string{"Fat free mass", "FFM", "Lean mass"},
			Units:    []Unit{pounds},
		},
		{
			Code: "SMM", Names: names("Skeletal muscle mass", "Скелетная мышечная масса"), Category: CategoryBodyComposition,
			Unit:     "kg",
			Synonyms: []string{"Muscle mass", "SMM InBody"},
			Units:    []Unit{pounds},
		},
	}
}
