package prompts

const SchemaContext = `Database Schema for Chicago Election Results:

1. Key Conventions:
   - precinct_id is the canonical join key: 5 digits, 2-digit zero-padded
     ward followed by 3-digit zero-padded precinct (e.g. "03007" is
     ward 3, precinct 7)
   - election results and precinct boundaries join on equality of
     precinct_id, restricted to the boundary vintage covering the year
   - boundary vintages: each precinct_geometries row carries
     valid_from_year and valid_to_year (NULL while still current)

2. Tables and Their Relationships:
   - election_results (denormalized, one row per voting option per
     precinct per contest)
     * Columns:
       - result_id: unique row id (integer)
       - year: election year (integer)
       - election_date: date string
       - election_id: source election identifier (integer)
       - contest_id: source contest identifier (integer)
       - contest_name: e.g. "Mayor", "Alderman 3rd Ward" (varchar)
       - precinct_id: canonical 5-digit key (varchar)
       - ward, precinct: raw source values as imported (varchar)
       - total_votes: ballots cast in the precinct for the contest
       - option_name: candidate or ballot option; turnout exports use
         the synthetic options "registered" and "ballots"
       - option_votes: votes for the option (integer)
       - option_percent: source-reported percentage (double precision)

   - precinct_geometries
     * Columns:
       - precinct_geometry_id: unique row id (integer)
       - precinct_id: canonical 5-digit key (varchar)
       - valid_from_year, valid_to_year: vintage coverage (integer)
       - source_file: boundary GeoJSON the row came from
       - geom: PostGIS geometry, WGS84 (SRID 4326)
     * Join: election_results.precinct_id = precinct_geometries.precinct_id
       AND election_results.year BETWEEN valid_from_year AND
       COALESCE(valid_to_year, 9999)

   - sequence_values
     * Internal id allocation, never useful in answers

3. Views:
   - election_summary: per election_id/year - contests, precincts, rows
   - results_by_ward: option_votes summed to the ward level

4. Useful Derivations:
   - ward from precinct_id: SUBSTRING(precinct_id FROM 1 FOR 2)
   - turnout percentage: option_percent on the "ballots" option rows
   - spatial queries go through precinct_geometries.geom (PostGIS)`

const QueryExamples = `Example Queries:

1. "who won the mayor race in ward 3 in 2019"
   SELECT option_name, SUM(option_votes) AS votes
   FROM election_results
   WHERE LOWER(contest_name) LIKE '%mayor%'
   AND SUBSTRING(precinct_id FROM 1 FOR 2) = '03'
   AND year = 2019
   AND option_name NOT IN ('registered', 'ballots')
   GROUP BY option_name
   ORDER BY votes DESC;

2. "turnout by ward in 2023"
   SELECT SUBSTRING(precinct_id FROM 1 FOR 2) AS ward,
          SUM(CASE WHEN option_name = 'ballots' THEN option_votes END) AS ballots,
          SUM(CASE WHEN option_name = 'registered' THEN option_votes END) AS registered
   FROM election_results
   WHERE year = 2023
   GROUP BY SUBSTRING(precinct_id FROM 1 FOR 2)
   ORDER BY ward;

3. "how many precincts had boundaries in the 2013 vintage"
   SELECT COUNT(*)
   FROM precinct_geometries
   WHERE valid_from_year = 2013;`
