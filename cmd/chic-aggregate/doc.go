/*
chic-aggregate condenses per-viewpoint capture Hi-C interaction profiles onto
target regions, producing one row per target (or per group of adjacent
targets) suitable for downstream differential testing.  Viewpoint files come
in pairs measuring the same viewpoint in two related samples; each sample of
a pair is aggregated against the same target set and written to its own
output file.

Target regions come from explicit BED-style region files, or are derived
from the pair itself by rbz-score thresholding (-rbz-targets).  A
-region chr:start-end restricts the target set to regions overlapping that
span.

Sample usage:

chic-aggregate \
    -interaction-files vp1.txt,vp2.txt \
    -target-files targets.bed \
    -output-folder aggregatedFiles

Batch mode reads manifests instead of file lists and fans the jobs out over
-parallelism workers:

chic-aggregate \
    -batch \
    -interaction-files viewpoint_names.txt \
    -target-files target_names.txt \
    -interaction-folder viewpointFiles \
    -target-folder targetFiles \
    -parallelism 20
*/
package main
