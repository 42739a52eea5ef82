package registry

import (
	"os"
	"strconv"
	"strings"
)

// sidecar is the parsed metadata.txt next to a template. All fields are
// optional; recognized keys are matched case-insensitively and unknown keys
// are ignored.
type sidecar struct {
	fields map[string]string
}

func parseSidecar(path string) (*sidecar, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &sidecar{fields: map[string]string{}}, nil
	}
	if err != nil {
		return nil, err
	}
	fields := map[string]string{}
	for _, line := range strings.Split(string(data), "\n") {
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(k)), " ", "_")
		fields[key] = strings.TrimSpace(v)
	}
	return &sidecar{fields: fields}, nil
}

func (s *sidecar) apply(loc *Location) {
	if v := s.fields["display_name"]; v != "" {
		loc.DisplayName = v
	} else if v := s.fields["location_name"]; v != "" {
		loc.DisplayName = v
	}
	if v := s.fields["series"]; v != "" {
		loc.Series = v
	}
	if v := s.fields["height"]; v != "" {
		loc.Height = v
	}
	if v := s.fields["width"]; v != "" {
		loc.Width = v
	}
	if strings.EqualFold(s.fields["display_type"], "static") {
		loc.Kind = KindStatic
	}
	loc.Faces = s.intField("number_of_faces", DefaultFaces)
	loc.SpotDuration = s.intField("spot_duration", DefaultSpotDuration)
	loc.LoopDuration = s.intField("loop_duration", DefaultLoopDuration)
	loc.BaseSOV = s.sovField()
	loc.UploadFee = s.feeField()
}

// intField coerces a numeric field, falling back on parse failure.
func (s *sidecar) intField(key string, def int) int {
	v := s.fields[key]
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func (s *sidecar) sovField() float64 {
	v := strings.TrimSpace(strings.TrimSuffix(s.fields["sov"], "%"))
	if v == "" {
		return DefaultBaseSOV
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return DefaultBaseSOV
	}
	return f
}

func (s *sidecar) feeField() int64 {
	v := strings.ReplaceAll(s.fields["upload_fee"], ",", "")
	v = strings.TrimSpace(v)
	if v == "" {
		return DefaultUploadFee
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return DefaultUploadFee
	}
	return n
}
