package charts

import (
	"encoding/json"
	"fmt"
)

// ChartSnippet is an embeddable ECharts fragment.
// Div holds the single root <div>, Script the block initializing it,
// and HTML both combined for template substitution.
type ChartSnippet struct {
	ID     string
	Title  string
	Div    string
	Script string
	HTML   string
}

// newSnippet marshals an ECharts option and wires it to a div of the given height
func newSnippet(id, title, height string, option map[string]interface{}) (ChartSnippet, error) {
	optJSON, err := json.Marshal(option)
	if err != nil {
		return ChartSnippet{}, fmt.Errorf("failed to marshal %s option: %w", id, err)
	}

	div := fmt.Sprintf("<div id=\"%s\" style=\"width:100%%;height:%s;\"></div>", id, height)
	script := fmt.Sprintf(`<script>(function(){var el=document.getElementById('%s');if(!el)return;var c=echarts.init(el);var option=%s;c.setOption(option);window.addEventListener('resize',function(){c.resize();});})();</script>`, id, string(optJSON))

	html := fmt.Sprintf(`<div class="gauge-item">
	<h4>%s</h4>
	%s
</div>
%s`, title, div, script)

	return ChartSnippet{ID: id, Title: title, Div: div, Script: script, HTML: html}, nil
}
